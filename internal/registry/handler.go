package registry

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accessgate/accessgate/internal/identity"
	"github.com/accessgate/accessgate/internal/platform/httpx"
	"github.com/accessgate/accessgate/internal/shared"
)

// Handler manages resource permission endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers resource permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{resource}/permissions", h.grantPermission)
	r.Delete("/{resource}/permissions/{role}", h.revokePermission)
	r.Get("/{resource}/access", h.checkAccess)
}

type grantPermissionInput struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) grantPermission(w http.ResponseWriter, r *http.Request) {
	var input grantPermissionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: role required", httpx.ErrValidation))
		return
	}
	role, err := identity.ParseRole(input.Role)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	resource := chi.URLParam(r, "resource")
	if err := h.service.Grant(r.Context(), resource, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokePermission(w http.ResponseWriter, r *http.Request) {
	role, err := identity.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	resource := chi.URLParam(r, "resource")
	if err := h.service.Revoke(r.Context(), resource, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	principal := shared.Principal(r.URL.Query().Get("principal"))
	if principal.IsZero() {
		// No explicit principal means the caller asks about themselves.
		principal = shared.PrincipalFromContext(r.Context())
	}
	allowed, err := h.service.CanAccess(r.Context(), principal, resource)
	if err != nil {
		h.logger.Error("check access", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"principal": principal.String(),
		"resource":  resource,
		"allowed":   allowed,
	})
}
