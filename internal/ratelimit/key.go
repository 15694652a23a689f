package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// keyPrefix namespaces counter keys in the shared store.
const keyPrefix = "rate_limit"

// windowLabelFormat truncates a timestamp to minute granularity, which makes
// every request within the same wall-clock minute address the same key.
const windowLabelFormat = "2006-01-02T15:04"

// HashIdentity returns a stable one-way digest of a user identity. Raw
// identities never appear in store keys or published events.
func HashIdentity(identity string) string {
	sum := sha256.Sum256([]byte(identity))

	return hex.EncodeToString(sum[:])
}

// DeriveKey computes the counter key for the given identity in the window
// containing now. The identity must be non-empty; callers bypass rate
// limiting entirely when no identity is present on the request.
func DeriveKey(identity string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", keyPrefix, HashIdentity(identity), WindowLabel(now))
}

// WindowLabel returns the minute-aligned label of the window containing now.
func WindowLabel(now time.Time) string {
	return now.UTC().Format(windowLabelFormat)
}

// WindowEnd returns the instant the window containing now closes, i.e. the
// top of the next minute. Counter keys expire at exactly this time.
func WindowEnd(now time.Time) time.Time {
	return now.UTC().Truncate(time.Minute).Add(time.Minute)
}
