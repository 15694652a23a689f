package ratelimit

import "time"

// Decision is the outcome of a rate limit check. It is computed fresh per
// request and never persisted.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Count is the number of requests seen in the current window, including
	// this one.
	Count int64
	// Limit is the configured maximum per window.
	Limit int64
	// RetryAfter is the number of seconds until the current window closes
	// and the counter resets.
	RetryAfter int
}

// Evaluate compares a counter snapshot against the configured limit. The
// increment that pushes the count to limit+1 is the first one denied.
//
// RetryAfter is derived from the store-reported remaining TTL when one is
// available; since keys expire at the window boundary this equals the
// seconds left in the current minute. The wall clock is the fallback for
// stores that cannot report a TTL.
func Evaluate(count, limit int64, ttl time.Duration, now time.Time) Decision {
	retryAfter := 60 - now.Second()
	if ttl > 0 {
		retryAfter = int((ttl + time.Second - 1) / time.Second)
	}

	return Decision{
		Allowed:    count <= limit,
		Count:      count,
		Limit:      limit,
		RetryAfter: retryAfter,
	}
}
