package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// UserLimiter counts requests per identity in fixed one-minute windows
// backed by a shared counter store. It holds no mutable state of its own;
// concurrency correctness rests on the store's atomic increment.
type UserLimiter struct {
	store CounterStore
	limit int64
	now   func() time.Time
}

// Option configures a UserLimiter.
type Option func(*UserLimiter)

// WithClock overrides the limiter's time source. Used by tests to pin
// requests to a specific window.
func WithClock(now func() time.Time) Option {
	return func(l *UserLimiter) {
		l.now = now
	}
}

// NewUserLimiter creates a per-user fixed-window limiter allowing limit
// requests per identity per minute.
func NewUserLimiter(store CounterStore, limit int64, opts ...Option) *UserLimiter {
	l := &UserLimiter{
		store: store,
		limit: limit,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Limit returns the configured maximum per window.
func (l *UserLimiter) Limit() int64 {
	return l.limit
}

// Check records one request for identity and decides whether it may proceed.
// The identity must be non-empty.
func (l *UserLimiter) Check(ctx context.Context, identity string) (Decision, error) {
	now := l.now()
	key := DeriveKey(identity, now)

	count, ttl, err := l.store.Increment(ctx, key, WindowEnd(now))
	if err != nil {
		return Decision{}, fmt.Errorf("user rate limit check: %w", err)
	}

	return Evaluate(count, l.limit, ttl, now), nil
}
