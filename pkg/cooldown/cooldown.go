// Package cooldown tracks per-user per-command invocation throttling.
package cooldown

import (
	"strings"
	"sync"
	"time"
)

type key struct {
	command string
	userID  string
}

// Store maps (command, user) pairs to the time the next invocation becomes
// allowed. Entries are written on every successful dispatch; stale ones are
// inert until the janitor sweeps them.
type Store struct {
	mu      sync.Mutex
	entries map[key]time.Time
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[key]time.Time),
		now:     time.Now,
	}
}

// Check returns how long the user still has to wait before invoking the
// command again. Zero means the invocation is allowed.
func (s *Store) Check(command, userID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.entries[key{strings.ToLower(command), userID}]
	if !ok {
		return 0
	}
	if remaining := next.Sub(s.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Touch records a successful invocation, arming the cooldown window.
func (s *Store) Touch(command, userID string, cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{strings.ToLower(command), userID}] = s.now().Add(cooldown)
}

// Sweep drops entries whose window elapsed more than maxAge ago and returns
// how many were removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for k, next := range s.entries {
		if next.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
