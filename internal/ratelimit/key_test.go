package ratelimit_test

import (
	"testing"
	"time"

	"github.com/serroba/ratelimit-go/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 30, 15, 0, time.UTC)

	t.Run("same identity and minute map to the same key", func(t *testing.T) {
		k1 := ratelimit.DeriveKey("alice", base)
		k2 := ratelimit.DeriveKey("alice", base.Add(44*time.Second))

		assert.Equal(t, k1, k2)
	})

	t.Run("different minutes map to different keys", func(t *testing.T) {
		k1 := ratelimit.DeriveKey("alice", base)
		k2 := ratelimit.DeriveKey("alice", base.Add(time.Minute))

		assert.NotEqual(t, k1, k2)
	})

	t.Run("different identities map to different keys", func(t *testing.T) {
		k1 := ratelimit.DeriveKey("alice", base)
		k2 := ratelimit.DeriveKey("bob", base)

		assert.NotEqual(t, k1, k2)
	})

	t.Run("key carries the minute-truncated window label", func(t *testing.T) {
		key := ratelimit.DeriveKey("alice", base)

		assert.Contains(t, key, "2025-06-01T10:30")
		assert.NotContains(t, key, ":15")
	})

	t.Run("key never contains the raw identity", func(t *testing.T) {
		key := ratelimit.DeriveKey("alice@example.com", base)

		assert.NotContains(t, key, "alice")
	})

	t.Run("window label is UTC regardless of input zone", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		k1 := ratelimit.DeriveKey("alice", base)
		k2 := ratelimit.DeriveKey("alice", base.In(loc))

		assert.Equal(t, k1, k2)
	})
}

func TestWindowEnd(t *testing.T) {
	t.Run("returns the top of the next minute", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 10, 30, 15, 500, time.UTC)

		end := ratelimit.WindowEnd(now)

		assert.Equal(t, time.Date(2025, 6, 1, 10, 31, 0, 0, time.UTC), end)
	})

	t.Run("at an exact minute boundary the window is the full minute ahead", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

		end := ratelimit.WindowEnd(now)

		assert.Equal(t, time.Date(2025, 6, 1, 10, 31, 0, 0, time.UTC), end)
	})
}
