package janitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	swept  int
	maxAge time.Duration
}

func (c *countingTarget) Sweep(maxAge time.Duration) int {
	c.maxAge = maxAge
	c.swept++
	return 3
}

func TestNewRejectsBadExpression(t *testing.T) {
	_, err := New("not a cron", time.Hour)
	require.Error(t, err)
}

func TestSweepNow(t *testing.T) {
	a := &countingTarget{}
	b := &countingTarget{}
	j, err := New("*/5 * * * *", 2*time.Hour, a, b)
	require.NoError(t, err)

	assert.Equal(t, 6, j.SweepNow())
	assert.Equal(t, 1, a.swept)
	assert.Equal(t, 1, b.swept)
	assert.Equal(t, 2*time.Hour, a.maxAge)
}
