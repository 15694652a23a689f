package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ratelimit-go/internal/ratelimit"
)

// DefaultStoreTimeout bounds each counter call so an unreachable store
// cannot stall the request pipeline.
const DefaultStoreTimeout = 250 * time.Millisecond

// incrementScript increments the window counter and, on the increment that
// creates the key, sets its absolute expiry. Running as a single script
// keeps increment and expiry-set atomic: a crash between the two cannot
// leave an immortal key, and two first-writers cannot race to set
// divergent expiries.
//
// KEYS[1] = counter key
// ARGV[1] = absolute expiry, unix milliseconds
//
// Returns {count, remaining TTL in milliseconds}.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIREAT", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisCounterStore is the Redis implementation of ratelimit.CounterStore.
// It relies on Redis's native atomic increment; there is no client-side
// locking and no read-modify-write emulation.
type RedisCounterStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCounterStore creates a Redis-backed counter store. A timeout of
// zero falls back to DefaultStoreTimeout.
func NewRedisCounterStore(client *redis.Client, timeout time.Duration) *RedisCounterStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	return &RedisCounterStore{
		client:  client,
		timeout: timeout,
	}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string, expireAt time.Time) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := incrementScript.Run(ctx, s.client, []string{key}, expireAt.UnixMilli()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ratelimit.ErrStoreUnavailable, err)
	}

	if len(values) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected script reply of %d values", ratelimit.ErrStoreUnavailable, len(values))
	}

	count := values[0]

	var ttl time.Duration
	if values[1] > 0 {
		ttl = time.Duration(values[1]) * time.Millisecond
	}

	return count, ttl, nil
}

// Compile-time check.
var _ ratelimit.CounterStore = (*RedisCounterStore)(nil)
