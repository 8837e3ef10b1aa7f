// Package authz provides the role-based gating predicates evaluated before
// privileged mutations. Guards are read-only over the role store and keyed on
// the call's authenticated principal.
package authz

import (
	"context"
	"fmt"

	"github.com/accessgate/accessgate/internal/identity"
	"github.com/accessgate/accessgate/internal/shared"
)

// RoleSource reads the current role assignment for a principal.
type RoleSource interface {
	Get(ctx context.Context, principal shared.Principal) (identity.Role, bool, error)
}

// Guard evaluates role requirements against the role store.
type Guard struct {
	roles RoleSource
}

// NewGuard constructs a Guard over the given role source.
func NewGuard(roles RoleSource) *Guard {
	return &Guard{roles: roles}
}

// RequireAdmin succeeds only when the caller holds the Admin role.
func (g *Guard) RequireAdmin(ctx context.Context) error {
	role, ok, err := g.callerRole(ctx)
	if err != nil {
		return err
	}
	if !ok || role != identity.RoleAdmin {
		return fmt.Errorf("%w: caller is not an admin", shared.ErrPermissionDenied)
	}
	return nil
}

// RequireAdminOrManager succeeds when the caller holds Admin or Manager.
func (g *Guard) RequireAdminOrManager(ctx context.Context) error {
	role, ok, err := g.callerRole(ctx)
	if err != nil {
		return err
	}
	if !ok || (role != identity.RoleAdmin && role != identity.RoleManager) {
		return fmt.Errorf("%w: caller must be an admin or manager", shared.ErrPermissionDenied)
	}
	return nil
}

func (g *Guard) callerRole(ctx context.Context) (identity.Role, bool, error) {
	caller := shared.PrincipalFromContext(ctx)
	if caller.IsZero() {
		return "", false, nil
	}
	return g.roles.Get(ctx, caller)
}
