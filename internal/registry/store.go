// Package registry maps resource names to the set of roles permitted on them.
package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/accessgate/accessgate/internal/identity"
)

const permissionKeyPrefix = "accessgate:perm:"

// Store keeps one redis set of role names per resource. An entry is created
// lazily on the first grant; an empty set is a valid, permission-less entry.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store over the provided redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func permissionKey(resource string) string {
	return permissionKeyPrefix + resource
}

// Add puts a role into the resource's permitted set. Idempotent.
func (s *Store) Add(ctx context.Context, resource string, role identity.Role) error {
	if err := s.client.SAdd(ctx, permissionKey(resource), role.String()).Err(); err != nil {
		return fmt.Errorf("registry: add permission: %w", err)
	}
	return nil
}

// Remove takes a role out of the resource's permitted set. No-op when either
// the resource entry or the membership is absent.
func (s *Store) Remove(ctx context.Context, resource string, role identity.Role) error {
	if err := s.client.SRem(ctx, permissionKey(resource), role.String()).Err(); err != nil {
		return fmt.Errorf("registry: remove permission: %w", err)
	}
	return nil
}

// Contains reports whether the role is in the resource's permitted set.
func (s *Store) Contains(ctx context.Context, resource string, role identity.Role) (bool, error) {
	ok, err := s.client.SIsMember(ctx, permissionKey(resource), role.String()).Result()
	if err != nil {
		return false, fmt.Errorf("registry: check permission: %w", err)
	}
	return ok, nil
}
