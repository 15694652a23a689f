package audit

import "time"

// TopicLimitExceeded is the stream topic for rejection events.
const TopicLimitExceeded = "ratelimit.exceeded"

// LimitExceededEvent is emitted when the user limiter rejects a request.
// It carries the identity hash, never the raw identity.
type LimitExceededEvent struct {
	ID           string    `json:"id"`
	IdentityHash string    `json:"identityHash"`
	Count        int64     `json:"count"`
	Limit        int64     `json:"limit"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	ClientIP     string    `json:"clientIp"`
	RequestID    string    `json:"requestId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}
