package oauthstate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps states in process memory. It is only correct for a
// single instance.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]time.Time)}
}

func (s *MemoryStore) Put(_ context.Context, state string, expiresAt time.Time) error {
	s.mu.Lock()
	s.states[state] = expiresAt
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Take(_ context.Context, state string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	return expiresAt, ok, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for state, expiresAt := range s.states {
		if !now.Before(expiresAt) {
			delete(s.states, state)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
