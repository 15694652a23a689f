package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable indicates the counter store could not be reached or
// the call timed out. The middleware decides whether this fails open or
// closed; the limiter itself only reports it.
var ErrStoreUnavailable = errors.New("rate limit counter store unavailable")

// CounterStore is the adapter over a shared key/value store with atomic
// counters and per-key expiry.
type CounterStore interface {
	// Increment atomically increments the counter at key, creating it with
	// value 1 when absent. The call that creates the key also sets its
	// absolute expiry to expireAt; increment and expiry-set are a single
	// atomic operation so a crash between them cannot leak an immortal key.
	// Returns the new count and the key's remaining TTL.
	Increment(ctx context.Context, key string, expireAt time.Time) (count int64, ttl time.Duration, err error)
}
