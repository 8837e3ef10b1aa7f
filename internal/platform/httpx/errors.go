package httpx

import (
	"errors"
	"net/http"

	"github.com/accessgate/accessgate/internal/shared"
)

// ErrValidation marks malformed or incomplete request input.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrPermissionDenied):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotPending):
		Problem(w, http.StatusConflict, "Not Pending", err.Error())
	case errors.Is(err, shared.ErrAlreadyInProgress):
		Problem(w, http.StatusConflict, "Already In Progress", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
