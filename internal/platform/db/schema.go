package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the access request tables if they do not exist. Requests
// are append-only history and must survive restarts; the partial index backs
// the pending listing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS access_requests (
	id           TEXT PRIMARY KEY,
	requester    TEXT NOT NULL,
	resource     TEXT NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL DEFAULT 'PENDING',
	processed    BOOLEAN NOT NULL DEFAULT FALSE
)`,
		`CREATE INDEX IF NOT EXISTS access_requests_pending_idx
	ON access_requests (requested_at) WHERE status = 'PENDING'`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: ensure schema: %w", err)
		}
	}
	return nil
}
