package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/accessgate/accessgate/internal/shared"
)

// ManagerGuard gates request processing to admins and managers.
type ManagerGuard interface {
	RequireAdminOrManager(ctx context.Context) error
}

// DecisionNotifier performs the side-effecting work tied to a decision. It may
// block on downstream calls; its failure never reverses the decision.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, req AccessRequest, approved bool) error
}

// Service handles access request business logic.
type Service struct {
	repo      RepositoryPort
	lifecycle *Lifecycle
	guard     ManagerGuard
	notifier  DecisionNotifier
	logger    *slog.Logger

	clock func() time.Time

	// last issued creation timestamp, to keep ids strictly increasing
	clockMu   sync.Mutex
	lastNanos int64
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, lifecycle *Lifecycle, guard ManagerGuard, notifier DecisionNotifier, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		lifecycle: lifecycle,
		guard:     guard,
		notifier:  notifier,
		logger:    logger,
		clock:     time.Now,
	}
}

// Create records a new pending access request for the calling principal and
// returns its id. Open to any authenticated caller.
func (s *Service) Create(ctx context.Context, resource string) (string, error) {
	requester := shared.PrincipalFromContext(ctx)
	if requester.IsZero() {
		return "", fmt.Errorf("%w: no authenticated principal", shared.ErrPermissionDenied)
	}

	now := s.nextTimestamp()
	req := AccessRequest{
		ID:          fmt.Sprintf("req-%s-%d", requester, now.UnixNano()),
		Requester:   requester,
		Resource:    resource,
		RequestedAt: now,
		Status:      StatusPending,
	}
	if err := s.repo.Insert(ctx, req); err != nil {
		return "", err
	}
	s.logger.Info("access request created",
		slog.String("request_id", req.ID),
		slog.String("resource", resource))
	return req.ID, nil
}

// nextTimestamp returns a strictly increasing creation time so ids derived
// from (requester, time) cannot collide.
func (s *Service) nextTimestamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	now := s.clock()
	if now.UnixNano() <= s.lastNanos {
		now = time.Unix(0, s.lastNanos+1)
	}
	s.lastNanos = now.UnixNano()
	return now
}

// Process decides a pending request. Admin or Manager only. The decision is
// fixed before the downstream work runs; the deferred finalize commits it on
// every exit path, including cancellation, so the request can never stay stuck
// processing.
func (s *Service) Process(ctx context.Context, id string, approve bool) error {
	if err := s.guard.RequireAdminOrManager(ctx); err != nil {
		return err
	}

	ticket, err := s.lifecycle.Begin(ctx, id)
	if err != nil {
		return err
	}

	decision := StatusDenied
	if approve {
		decision = StatusApproved
	}
	defer ticket.Finalize(context.WithoutCancel(ctx), decision)

	if err := s.notifier.NotifyDecision(ctx, ticket.Request(), approve); err != nil {
		// The decision stands; only the failure is surfaced.
		s.logger.Error("downstream processing failed",
			slog.String("request_id", id),
			slog.Any("error", fmt.Errorf("%w: %w", shared.ErrDownstream, err)))
	}
	return nil
}

// StatusOf returns the current status of a request, or ok=false when the id
// is unknown. Unrestricted read.
func (s *Service) StatusOf(ctx context.Context, id string) (Status, bool, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return req.Status, true, nil
}

// ListPending returns the ids of all pending requests. Unrestricted read.
func (s *Service) ListPending(ctx context.Context) ([]string, error) {
	return s.repo.ListPending(ctx)
}
