package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/accessgate/accessgate/internal/shared"
)

// memoryRepo implements RepositoryPort for tests, keeping the pending index
// in insertion order.
type memoryRepo struct {
	mu      sync.Mutex
	recs    map[string]AccessRequest
	pending []string

	failMark bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{recs: make(map[string]AccessRequest)}
}

func (r *memoryRepo) Insert(ctx context.Context, req AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[req.ID]; ok {
		return fmt.Errorf("duplicate id %s", req.ID)
	}
	r.recs[req.ID] = req
	r.pending = append(r.pending, req.ID)
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (AccessRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.recs[id]
	if !ok {
		return AccessRequest{}, fmt.Errorf("%w: request %s", shared.ErrNotFound, id)
	}
	return req, nil
}

func (r *memoryRepo) MarkProcessed(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMark {
		return errors.New("store unavailable")
	}
	req, ok := r.recs[id]
	if !ok {
		return fmt.Errorf("%w: request %s", shared.ErrNotFound, id)
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: request %s", shared.ErrNotPending, id)
	}
	req.Status = status
	req.Processed = true
	r.recs[id] = req
	for i, pid := range r.pending {
		if pid == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepo) ListPending(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pending...), nil
}

type allowAllGuard struct{}

func (allowAllGuard) RequireAdminOrManager(ctx context.Context) error { return nil }

type denyGuard struct{}

func (denyGuard) RequireAdminOrManager(ctx context.Context) error {
	return fmt.Errorf("%w: caller must be an admin or manager", shared.ErrPermissionDenied)
}

// stubNotifier records decisions and optionally fails or blocks.
type stubNotifier struct {
	mu      sync.Mutex
	calls   []AccessDecision
	err     error
	started chan struct{}
	release chan struct{}
}

type AccessDecision struct {
	Request  AccessRequest
	Approved bool
}

func (n *stubNotifier) NotifyDecision(ctx context.Context, req AccessRequest, approved bool) error {
	if n.started != nil {
		close(n.started)
	}
	if n.release != nil {
		<-n.release
	}
	n.mu.Lock()
	n.calls = append(n.calls, AccessDecision{Request: req, Approved: approved})
	n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	return ctx.Err()
}

func (n *stubNotifier) decisions() []AccessDecision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]AccessDecision(nil), n.calls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
