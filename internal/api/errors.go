package api

import (
	"errors"
	"net/http"

	"github.com/examgen/examgen-api/internal/api/shared"
	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/service/paper"
)

// Request-level errors detected before the pipeline runs.
var (
	ErrInvalidRequestFormat = errors.New("invalid request format")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrUnsupportedMedia     = errors.New("unsupported content type")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrInvalidRequestFormat):
		return http.StatusBadRequest

	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Field + " " + verr.Reason

	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"

	case errors.Is(err, ErrInvalidRequestFormat):
		return "Invalid request format"

	case errors.Is(err, ErrBodyTooLarge):
		return "Request body too large"

	case errors.Is(err, ErrUnsupportedMedia):
		return "Unsupported content type"

	case errors.Is(err, paper.ErrRenderFailed):
		return "Failed to render the document"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. A non-empty fallbackMsg
// replaces the generic message for unclassified errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" && !errors.Is(err, paper.ErrRenderFailed) {
		message = fallbackMsg
	}

	var opts []shared.ResponseOption
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		opts = append(opts, shared.WithField(verr.Field))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
