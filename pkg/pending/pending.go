// Package pending stores reply continuations for multi-turn commands.
//
// A command that solicits a follow-up ("reply with a number 1-5") records an
// entry keyed by the chat and message id of its own soliciting message. The
// dispatcher consumes the entry when a direct reply to that message arrives;
// consumption removes it, so each continuation fires at most once.
package pending

import (
	"strings"
	"sync"
	"time"
)

type key struct {
	chatID    int64
	messageID int
}

// Reply is one stored continuation.
type Reply struct {
	Command string
	State   any
	Created time.Time
}

type Store struct {
	mu      sync.Mutex
	replies map[key]Reply
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		replies: make(map[key]Reply),
		now:     time.Now,
	}
}

// Put registers a continuation for the given soliciting message, replacing
// any earlier entry for the same message.
func (s *Store) Put(chatID int64, messageID int, command string, state any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[key{chatID, messageID}] = Reply{
		Command: strings.ToLower(command),
		State:   state,
		Created: s.now(),
	}
}

// Consume removes and returns the continuation for the given message, if one
// exists. The removal happens regardless of what the caller does with the
// result: a second reply to the same message finds nothing.
func (s *Store) Consume(chatID int64, messageID int) (Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{chatID, messageID}
	r, ok := s.replies[k]
	if ok {
		delete(s.replies, k)
	}
	return r, ok
}

// DropCommand removes every continuation registered by the named command,
// used when the command is unloaded.
func (s *Store) DropCommand(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical := strings.ToLower(command)
	removed := 0
	for k, r := range s.replies {
		if r.Command == canonical {
			delete(s.replies, k)
			removed++
		}
	}
	return removed
}

// Sweep drops continuations older than maxAge that were never consumed and
// returns how many were removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for k, r := range s.replies {
		if r.Created.Before(cutoff) {
			delete(s.replies, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored continuations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}
