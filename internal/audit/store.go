package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store persists rejection events for after-the-fact inspection.
type Store interface {
	SaveLimitExceeded(ctx context.Context, event *LimitExceededEvent) error
	// CountSince returns how many rejections were recorded at or after since.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// NoopStore logs events instead of persisting them. It is the default when
// no Postgres DSN is configured.
type NoopStore struct {
	logger *zap.Logger
}

// NewNoopStore creates a new logging-only audit store.
func NewNoopStore(logger *zap.Logger) *NoopStore {
	return &NoopStore{logger: logger}
}

func (n *NoopStore) SaveLimitExceeded(_ context.Context, event *LimitExceededEvent) error {
	n.logger.Info("rate limit exceeded event received",
		zap.String("identityHash", event.IdentityHash),
		zap.Int64("count", event.Count),
		zap.Int64("limit", event.Limit),
		zap.String("path", event.Path),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

func (n *NoopStore) CountSince(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// Compile-time check.
var _ Store = (*NoopStore)(nil)
