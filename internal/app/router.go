package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/accessgate/accessgate/internal/authz"
	"github.com/accessgate/accessgate/internal/identity"
	"github.com/accessgate/accessgate/internal/observability"
	"github.com/accessgate/accessgate/internal/registry"
	"github.com/accessgate/accessgate/internal/request"
	"github.com/accessgate/accessgate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	IdentityHandler *identity.Handler
	RegistryHandler *registry.Handler
	RequestHandler  *request.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults. Every route
// except the health check runs behind the principal middleware: the platform
// edge authenticates callers, the services decide what they may do.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Config: params.Config}) {
		r.Use(mw)
	}

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(authz.RequirePrincipal)

		r.Route("/admin", params.IdentityHandler.MountAdminRoutes)
		r.Route("/users", params.IdentityHandler.MountRoutes)
		r.Route("/resources", params.RegistryHandler.MountRoutes)
		r.Route("/requests", params.RequestHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
