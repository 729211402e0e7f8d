package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/examgen/examgen-api/internal/platform/logger"
	"github.com/examgen/examgen-api/internal/redact"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Code    int    `json:"-"` // Not serialized to JSON, used for logging
	TraceID string `json:"trace_id,omitempty"`
}

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

// responseOptions holds configurable options for error responses.
type responseOptions struct {
	elevateLogLevel bool
	field           string
}

// WithElevatedLogLevel returns a ResponseOption that raises 4xx errors to WARN level
// instead of the default DEBUG level.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// WithField names the request field the error refers to.
func WithField(field string) ResponseOption {
	return func(opts *responseOptions) {
		opts.field = field
	}
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), nil).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response with the given status code and message.
// It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	logger.FromContextOrDefault(r.Context(), nil).Debug("sending error response",
		"status_code", status,
		"message", message,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    status,
		TraceID: traceID,
	})
}

// RespondWithErrorAndLog writes a JSON error response and also logs the detailed error.
// Only userMessage reaches the client; err is logged after redaction.
//
// Log level strategy:
// - 5xx errors: Always logged at ERROR level
// - 4xx errors: By default logged at DEBUG level
// - 413 Request Entity Too Large and 429 Too Many Requests: Logged at WARN level
//
// Use WithElevatedLogLevel() to log any other 4xx at WARN level.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	traceID := GetTraceID(r.Context())

	responseOpts := responseOptions{}
	for _, opt := range opts {
		opt(&responseOpts)
	}

	logAttrs := []slog.Attr{
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if responseOpts.field != "" {
		logAttrs = append(logAttrs, slog.String("field", responseOpts.field))
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		logLevel = slog.LevelError
	case status == http.StatusTooManyRequests, status == http.StatusRequestEntityTooLarge:
		logLevel = slog.LevelWarn
	case responseOpts.elevateLogLevel && status >= http.StatusBadRequest:
		logLevel = slog.LevelWarn
	}

	logger.FromContextOrDefault(r.Context(), nil).LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   userMessage,
		Field:   responseOpts.field,
		Code:    status,
		TraceID: traceID,
	})
}
