package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/accessgate/accessgate/internal/shared"
)

// AdminGuard gates mutations that only admins may perform.
type AdminGuard interface {
	RequireAdmin(ctx context.Context) error
}

// Service owns the role assignments and the admin bootstrap rules.
type Service struct {
	store  *Store
	guard  AdminGuard
	logger *slog.Logger

	// serializes the scan-then-grant in BootstrapAdmin
	bootstrapMu sync.Mutex
}

// NewService builds Service instance.
func NewService(store *Store, guard AdminGuard, logger *slog.Logger) *Service {
	return &Service{store: store, guard: guard, logger: logger}
}

// Assign inserts or overwrites a role assignment. Admin only, idempotent.
func (s *Service) Assign(ctx context.Context, principal shared.Principal, role Role) error {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return err
	}
	if err := s.store.Set(ctx, principal, role); err != nil {
		return err
	}
	s.logger.Info("user role assigned",
		slog.String("principal", principal.String()),
		slog.String("role", role.String()))
	return nil
}

// Revoke removes a role assignment if present. Admin only.
func (s *Service) Revoke(ctx context.Context, principal shared.Principal) error {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, principal); err != nil {
		return err
	}
	s.logger.Info("user removed", slog.String("principal", principal.String()))
	return nil
}

// RoleOf returns the role assigned to a principal. Unrestricted read.
func (s *Service) RoleOf(ctx context.Context, principal shared.Principal) (Role, bool, error) {
	return s.store.Get(ctx, principal)
}

// BootstrapAdmin grants Admin to the caller only when no admin currently
// exists. It reports whether the grant happened. This is the out-of-band
// recovery path for a store that lost all admins without a redeploy.
func (s *Service) BootstrapAdmin(ctx context.Context) (bool, error) {
	caller := shared.PrincipalFromContext(ctx)
	if caller.IsZero() {
		return false, fmt.Errorf("%w: no authenticated principal", shared.ErrPermissionDenied)
	}

	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	exists, err := s.store.HasRole(ctx, RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Info("bootstrap refused, admin already exists",
			slog.String("principal", caller.String()))
		return false, nil
	}
	if err := s.store.Set(ctx, caller, RoleAdmin); err != nil {
		return false, err
	}
	s.logger.Info("bootstrapped first admin", slog.String("principal", caller.String()))
	return true, nil
}

// EnsureAdmin unconditionally grants Admin to the given principal. It runs on
// every service start so a redeploy always leaves a working admin; this is a
// deliberate recovery hatch, not an oversight.
func (s *Service) EnsureAdmin(ctx context.Context, principal shared.Principal) error {
	if principal.IsZero() {
		return fmt.Errorf("identity: bootstrap principal required")
	}
	if err := s.store.Set(ctx, principal, RoleAdmin); err != nil {
		return err
	}
	s.logger.Info("service initialized with admin", slog.String("principal", principal.String()))
	return nil
}
