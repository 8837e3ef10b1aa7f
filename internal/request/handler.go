package request

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accessgate/accessgate/internal/platform/httpx"
)

// Handler manages access request endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers request routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createRequest)
	r.Get("/pending", h.listPending)
	r.Get("/{id}", h.getStatus)
	r.Post("/{id}/process", h.processRequest)
}

type createRequestInput struct {
	Resource string `json:"resource" validate:"required"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var input createRequestInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: resource required", httpx.ErrValidation))
		return
	}
	id, err := h.service.Create(r.Context(), input.Resource)
	if err != nil {
		h.logger.Error("create request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

type processRequestInput struct {
	Approve *bool `json:"approve" validate:"required"`
}

func (h *Handler) processRequest(w http.ResponseWriter, r *http.Request) {
	var input processRequestInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: approve flag required", httpx.ErrValidation))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.Process(r.Context(), id, *input.Approve); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, ok, err := h.service.StatusOf(r.Context(), id)
	if err != nil {
		h.logger.Error("request status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown request id")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListPending(r.Context())
	if err != nil {
		h.logger.Error("list pending requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"pending": ids})
}
