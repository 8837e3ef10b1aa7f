package authz

import (
	"net/http"
	"strings"

	"github.com/accessgate/accessgate/internal/platform/httpx"
	"github.com/accessgate/accessgate/internal/shared"
)

// PrincipalHeader carries the identity established by the platform edge. The
// core never parses or validates it; an empty header means unauthenticated.
const PrincipalHeader = "X-Authenticated-Principal"

// RequirePrincipal extracts the authenticated principal from the request and
// stores it in context. Requests without one are rejected before reaching any
// handler; role checks happen later, inside the services.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(PrincipalHeader))
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authenticated principal required")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
