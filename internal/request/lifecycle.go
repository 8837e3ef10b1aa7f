package request

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/accessgate/accessgate/internal/shared"
)

// RepositoryPort defines data access methods for access requests.
type RepositoryPort interface {
	Insert(ctx context.Context, req AccessRequest) error
	Get(ctx context.Context, id string) (AccessRequest, error)
	MarkProcessed(ctx context.Context, id string, status Status) error
	ListPending(ctx context.Context) ([]string, error)
}

// Lifecycle admits at most one concurrent processor per request id. The
// in-flight set is transient: it only exists while the process runs, and a
// ticket releases its hold on every exit path.
type Lifecycle struct {
	repo   RepositoryPort
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewLifecycle builds Lifecycle instance.
func NewLifecycle(repo RepositoryPort, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Begin acquires the exclusive processing ticket for a request. The id is
// reserved in the in-flight set before the store is consulted, so the
// reservation stays atomic relative to other callers even though the store
// read may block; a failed verification releases the reservation.
func (l *Lifecycle) Begin(ctx context.Context, id string) (*ProcessingTicket, error) {
	l.mu.Lock()
	if _, held := l.inflight[id]; held {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", shared.ErrAlreadyInProgress, id)
	}
	l.inflight[id] = struct{}{}
	l.mu.Unlock()

	req, err := l.repo.Get(ctx, id)
	if err != nil {
		l.release(id)
		return nil, err
	}
	if req.Processed || req.Status != StatusPending {
		l.release(id)
		return nil, fmt.Errorf("%w: %s", shared.ErrNotPending, id)
	}

	return &ProcessingTicket{id: id, req: req, lc: l}, nil
}

func (l *Lifecycle) release(id string) {
	l.mu.Lock()
	delete(l.inflight, id)
	l.mu.Unlock()
}

// ProcessingTicket is the sole capability to finalize one request. It is
// single-use; Finalize runs its transition exactly once.
type ProcessingTicket struct {
	id   string
	req  AccessRequest
	lc   *Lifecycle
	once sync.Once
}

// Request returns the record snapshot taken when the ticket was acquired.
func (t *ProcessingTicket) Request() AccessRequest {
	return t.req
}

// Finalize commits the terminal status, marks the request processed, and
// releases the in-flight hold. The hold is released even when the store write
// fails; the write itself is guarded by the pending status, so a later retry
// on a still-pending record cannot double-apply.
func (t *ProcessingTicket) Finalize(ctx context.Context, decision Status) {
	t.once.Do(func() {
		defer t.lc.release(t.id)
		if err := t.lc.repo.MarkProcessed(ctx, t.id, decision); err != nil {
			t.lc.logger.Error("finalize request",
				slog.String("request_id", t.id),
				slog.Any("error", err))
			return
		}
		t.lc.logger.Info("request processed",
			slog.String("request_id", t.id),
			slog.String("status", string(decision)))
	})
}
