package ticketnumber

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is a process-local counter store for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	global int64
	daily  int64
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Add implements CounterStore.
func (s *MemoryStore) Add(_ context.Context, dateScoped bool, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errors.New("counter offset must be at least 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dateScoped {
		s.daily += offset
		return s.daily, nil
	}
	s.global += offset
	return s.global, nil
}
