package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/ratelimit-go/internal/ratelimit"
)

// MemoryCounterStore is an in-process implementation of
// ratelimit.CounterStore for tests and single-instance deployments.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
	now      func() time.Time
}

type counterEntry struct {
	count    int64
	expireAt time.Time
}

// MemoryOption configures a MemoryCounterStore.
type MemoryOption func(*MemoryCounterStore)

// WithClock overrides the store's time source. Used by tests to control
// window expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryCounterStore) {
		s.now = now
	}
}

// NewMemoryCounterStore creates a new in-memory counter store.
func NewMemoryCounterStore(opts ...MemoryOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		counters: make(map[string]*counterEntry),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string, expireAt time.Time) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	entry, ok := s.counters[key]
	if !ok || !entry.expireAt.After(now) {
		entry = &counterEntry{expireAt: expireAt}
		s.counters[key] = entry
	}

	entry.count++

	return entry.count, entry.expireAt.Sub(now), nil
}

// Compile-time check.
var _ ratelimit.CounterStore = (*MemoryCounterStore)(nil)
