// Package janitor expires stale dispatch state on a cron schedule. Cooldown
// entries and unanswered reply prompts both age out so the in-memory stores
// cannot grow without bound.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/ajirodesu/chaldea/pkg/cooldown"
	"github.com/ajirodesu/chaldea/pkg/logger"
)

// Sweepable is anything with aged entries to drop. Both state stores
// satisfy it.
type Sweepable interface {
	Sweep(maxAge time.Duration) int
}

var _ Sweepable = (*cooldown.Store)(nil)

// Janitor runs Sweep on each target whenever the cron expression is due,
// checked once a minute.
type Janitor struct {
	expr    string
	maxAge  time.Duration
	targets []Sweepable
	gron    *gronx.Gronx
}

// New validates the cron expression up front so a bad schedule fails at
// startup instead of silently never sweeping.
func New(expr string, maxAge time.Duration, targets ...Sweepable) (*Janitor, error) {
	g := gronx.New()
	if !g.IsValid(expr) {
		return nil, fmt.Errorf("janitor: invalid cron expression %q", expr)
	}
	return &Janitor{expr: expr, maxAge: maxAge, targets: targets, gron: g}, nil
}

// Run blocks until ctx is canceled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := j.gron.IsDue(j.expr, now)
			if err != nil || !due {
				continue
			}
			j.SweepNow()
		}
	}
}

// SweepNow expires aged entries immediately, outside the schedule.
func (j *Janitor) SweepNow() int {
	total := 0
	for _, target := range j.targets {
		total += target.Sweep(j.maxAge)
	}
	if total > 0 {
		logger.DebugCF("janitor", "swept stale entries", map[string]any{
			"count": total,
		})
	}
	return total
}
