package cooldown

import (
	"testing"
	"time"
)

func newTestStore(start time.Time) (*Store, *time.Time) {
	clock := start
	s := NewStore()
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestStore_WindowBlocksUntilElapsed(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, clock := newTestStore(start)

	if got := s.Check("weather", "42"); got != 0 {
		t.Fatalf("fresh store must allow, got %v", got)
	}

	s.Touch("weather", "42", 10*time.Second)

	*clock = start.Add(5 * time.Second)
	if got := s.Check("weather", "42"); got != 5*time.Second {
		t.Fatalf("remaining = %v, want 5s", got)
	}

	*clock = start.Add(10 * time.Second)
	if got := s.Check("weather", "42"); got != 0 {
		t.Fatalf("at t+K the invocation must be allowed, got %v", got)
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(start)

	s.Touch("weather", "42", 10*time.Second)

	if got := s.Check("weather", "43"); got != 0 {
		t.Fatalf("other user must not be throttled, got %v", got)
	}
	if got := s.Check("gpt", "42"); got != 0 {
		t.Fatalf("other command must not be throttled, got %v", got)
	}
}

func TestStore_CommandNameCaseInsensitive(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(start)

	s.Touch("Weather", "42", 10*time.Second)
	if got := s.Check("weather", "42"); got == 0 {
		t.Fatal("case-differing command name must hit the same entry")
	}
}

func TestStore_ZeroCooldownNeverStored(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(start)

	s.Touch("ping", "42", 0)
	if s.Len() != 0 {
		t.Fatalf("zero cooldown stored an entry, len=%d", s.Len())
	}
}

func TestStore_SweepDropsOnlyStaleEntries(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s, clock := newTestStore(start)

	s.Touch("weather", "42", 10*time.Second)
	s.Touch("gpt", "42", 2*time.Hour)

	*clock = start.Add(time.Hour)
	removed := s.Sweep(30 * time.Minute)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if got := s.Check("gpt", "42"); got == 0 {
		t.Fatal("live entry must survive the sweep")
	}
}
