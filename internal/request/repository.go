package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accessgate/accessgate/internal/shared"
)

// Repository provides PostgreSQL backed persistence for access requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new pending request.
func (r *Repository) Insert(ctx context.Context, req AccessRequest) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO access_requests (id, requester, resource, requested_at, status, processed)
VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.Requester.String(), req.Resource, req.RequestedAt, string(req.Status), req.Processed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("request: id collision on %s: %w", req.ID, err)
		}
		return fmt.Errorf("request: insert: %w", err)
	}
	return nil
}

// Get fetches a request by id.
func (r *Repository) Get(ctx context.Context, id string) (AccessRequest, error) {
	var (
		req       AccessRequest
		requester string
		status    string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, requester, resource, requested_at, status, processed
FROM access_requests WHERE id=$1`, id).
		Scan(&req.ID, &requester, &req.Resource, &req.RequestedAt, &status, &req.Processed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessRequest{}, fmt.Errorf("%w: request %s", shared.ErrNotFound, id)
		}
		return AccessRequest{}, fmt.Errorf("request: get: %w", err)
	}
	req.Requester = shared.Principal(requester)
	req.Status = Status(status)
	return req, nil
}

// MarkProcessed transitions a pending request to its terminal status. The
// pending predicate in the WHERE clause keeps the transition single-shot at
// the store level as well.
func (r *Repository) MarkProcessed(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE access_requests SET status=$2, processed=TRUE
WHERE id=$1 AND status=$3`, id, string(status), string(StatusPending))
	if err != nil {
		return fmt.Errorf("request: mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: request %s", shared.ErrNotPending, id)
	}
	return nil
}

// ListPending returns the ids of all pending requests in creation order.
func (r *Repository) ListPending(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM access_requests
WHERE status=$1 ORDER BY requested_at`, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("request: list pending: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
