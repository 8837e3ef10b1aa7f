package identity

import (
	"fmt"
	"strings"
)

// Role is one of the fixed privilege levels. Admin implicitly holds every
// permission; the other roles only act on resources they are explicitly
// granted.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
	RoleGuest   Role = "GUEST"
)

// Roles lists the closed role set.
var Roles = []Role{RoleAdmin, RoleManager, RoleUser, RoleGuest}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleManager, RoleUser, RoleGuest:
		return role, nil
	}
	return "", fmt.Errorf("identity: unknown role %q", raw)
}

func (r Role) String() string { return string(r) }
