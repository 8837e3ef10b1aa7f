package identity

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accessgate/accessgate/internal/platform/httpx"
	"github.com/accessgate/accessgate/internal/shared"
)

// Handler manages user and role endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/{principal}/role", h.assignRole)
	r.Delete("/{principal}", h.removeUser)
	r.Get("/{principal}/role", h.getRole)
}

// MountAdminRoutes registers the out-of-band admin bootstrap route.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/bootstrap", h.bootstrapAdmin)
}

type assignRoleInput struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var input assignRoleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: role required", httpx.ErrValidation))
		return
	}
	role, err := ParseRole(input.Role)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	principal := shared.Principal(chi.URLParam(r, "principal"))
	if err := h.service.Assign(r.Context(), principal, role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	principal := shared.Principal(chi.URLParam(r, "principal"))
	if err := h.service.Revoke(r.Context(), principal); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	principal := shared.Principal(chi.URLParam(r, "principal"))
	role, ok, err := h.service.RoleOf(r.Context(), principal)
	if err != nil {
		h.logger.Error("get user role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var assigned *string
	if ok {
		name := role.String()
		assigned = &name
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"principal": principal.String(),
		"role":      assigned,
	})
}

func (h *Handler) bootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	granted, err := h.service.BootstrapAdmin(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"granted": granted})
}
