package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
//
// Expected schema:
//
//	CREATE TABLE rate_limit_events (
//	    id            UUID PRIMARY KEY,
//	    identity_hash TEXT NOT NULL,
//	    request_count BIGINT NOT NULL,
//	    request_limit BIGINT NOT NULL,
//	    method        TEXT NOT NULL,
//	    path          TEXT NOT NULL,
//	    client_ip     TEXT NOT NULL,
//	    request_id    TEXT,
//	    occurred_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed audit store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) SaveLimitExceeded(ctx context.Context, event *LimitExceededEvent) error {
	query := `
		INSERT INTO rate_limit_events
			(id, identity_hash, request_count, request_limit, method, path, client_ip, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.IdentityHash,
		event.Count,
		event.Limit,
		event.Method,
		event.Path,
		event.ClientIP,
		nullableString(event.RequestID),
		event.OccurredAt,
	)

	return err
}

func (p *PostgresStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM rate_limit_events
		WHERE occurred_at >= $1
	`

	var count int64

	err := p.pool.QueryRow(ctx, query, since).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Shutdown closes the underlying connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)
