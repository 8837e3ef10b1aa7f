package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/accessgate/accessgate/internal/shared"
)

const roleHashKey = "accessgate:roles"

// Store keeps the principal to role assignments in a redis hash. The store is
// volatile on purpose: the startup hook re-grants Admin to the deploying
// principal, so losing the hash never locks the service out.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store over the provided redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Set inserts or overwrites the role for a principal. Last write wins.
func (s *Store) Set(ctx context.Context, principal shared.Principal, role Role) error {
	if err := s.client.HSet(ctx, roleHashKey, principal.String(), role.String()).Err(); err != nil {
		return fmt.Errorf("identity: set role: %w", err)
	}
	return nil
}

// Delete removes the assignment for a principal. No error if absent.
func (s *Store) Delete(ctx context.Context, principal shared.Principal) error {
	if err := s.client.HDel(ctx, roleHashKey, principal.String()).Err(); err != nil {
		return fmt.Errorf("identity: delete role: %w", err)
	}
	return nil
}

// Get returns the role assigned to a principal, or ok=false when unassigned.
func (s *Store) Get(ctx context.Context, principal shared.Principal) (Role, bool, error) {
	raw, err := s.client.HGet(ctx, roleHashKey, principal.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("identity: get role: %w", err)
	}
	role, err := ParseRole(raw)
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

// HasRole reports whether any principal currently holds the given role.
func (s *Store) HasRole(ctx context.Context, role Role) (bool, error) {
	assignments, err := s.client.HGetAll(ctx, roleHashKey).Result()
	if err != nil {
		return false, fmt.Errorf("identity: scan roles: %w", err)
	}
	for _, raw := range assignments {
		if raw == role.String() {
			return true, nil
		}
	}
	return false, nil
}
