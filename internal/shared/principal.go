package shared

import "context"

// Principal is the externally authenticated caller identity. It is supplied by
// the platform edge on every call and treated as an opaque token throughout.
type Principal string

func (p Principal) String() string { return string(p) }

// IsZero reports whether no principal was supplied.
func (p Principal) IsZero() bool { return p == "" }

type principalContextKey struct{}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal from context.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}
