package registry

import (
	"context"
	"log/slog"

	"github.com/accessgate/accessgate/internal/identity"
	"github.com/accessgate/accessgate/internal/shared"
)

// ManagerGuard gates mutations that admins or managers may perform.
type ManagerGuard interface {
	RequireAdminOrManager(ctx context.Context) error
}

// RoleSource reads the current role assignment for a principal.
type RoleSource interface {
	Get(ctx context.Context, principal shared.Principal) (identity.Role, bool, error)
}

// Service owns the resource permission registry and the combined access
// decision.
type Service struct {
	store  *Store
	roles  RoleSource
	guard  ManagerGuard
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(store *Store, roles RoleSource, guard ManagerGuard, logger *slog.Logger) *Service {
	return &Service{store: store, roles: roles, guard: guard, logger: logger}
}

// Grant adds a role to the resource's permitted set. Admin or Manager only.
func (s *Service) Grant(ctx context.Context, resource string, role identity.Role) error {
	if err := s.guard.RequireAdminOrManager(ctx); err != nil {
		return err
	}
	if err := s.store.Add(ctx, resource, role); err != nil {
		return err
	}
	s.logger.Info("resource permission granted",
		slog.String("resource", resource),
		slog.String("role", role.String()))
	return nil
}

// Revoke removes a role from the resource's permitted set. Admin or Manager only.
func (s *Service) Revoke(ctx context.Context, resource string, role identity.Role) error {
	if err := s.guard.RequireAdminOrManager(ctx); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, resource, role); err != nil {
		return err
	}
	s.logger.Info("resource permission revoked",
		slog.String("resource", resource),
		slog.String("role", role.String()))
	return nil
}

// IsPermitted reports whether the role is permitted on the resource.
// Unrestricted read.
func (s *Service) IsPermitted(ctx context.Context, resource string, role identity.Role) (bool, error) {
	return s.store.Contains(ctx, resource, role)
}

// CanAccess combines both stores: admins can access everything, any other
// principal only resources their role is granted on. An unassigned principal
// never has access.
func (s *Service) CanAccess(ctx context.Context, principal shared.Principal, resource string) (bool, error) {
	role, ok, err := s.roles.Get(ctx, principal)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if role == identity.RoleAdmin {
		return true, nil
	}
	return s.store.Contains(ctx, resource, role)
}
