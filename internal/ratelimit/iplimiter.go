package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter is the secondary, process-local defense layer keyed by client
// IP. It uses token buckets and is independent of the identity-based
// limiter; both run on every request.
type IPLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket

	rate    rate.Limit
	burst   int
	idleTTL time.Duration
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPOption configures an IPLimiter.
type IPOption func(*IPLimiter)

// WithIdleTTL sets how long an idle bucket survives before cleanup.
func WithIdleTTL(d time.Duration) IPOption {
	return func(l *IPLimiter) {
		l.idleTTL = d
	}
}

// NewIPLimiter creates a per-IP token bucket limiter refilling at rps
// tokens per second with the given burst.
func NewIPLimiter(rps float64, burst int, opts ...IPOption) *IPLimiter {
	l := &IPLimiter{
		buckets: make(map[string]*ipBucket),
		rate:    rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow reports whether a request from ip may proceed, consuming one token.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}

	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// Cleanup drops buckets that have been idle longer than the idle TTL.
func (l *IPLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// Len returns the number of tracked IPs.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}

// StartJanitor cleans idle buckets periodically until ctx is cancelled.
func (l *IPLimiter) StartJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
