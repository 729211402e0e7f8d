package generation

import (
	"context"
	"errors"
)

// Common errors returned by the generation package
var (
	// ErrNoModelAvailable is returned when every candidate in a resolution has
	// been tried or skipped. Callers are expected to fall back.
	ErrNoModelAvailable = errors.New("no generative model available")

	// ErrModelUnavailable is returned when a model handle cannot be constructed
	// or the upstream reports the model as unknown or retired.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrNoCredential is returned by a backend that has no credential configured.
	// It is detected without any network call.
	ErrNoCredential = errors.New("no credential configured")

	// ErrAuth is returned when the upstream rejects the configured credential
	ErrAuth = errors.New("upstream rejected credential")

	// ErrRateLimited is returned when the upstream throttles the caller
	ErrRateLimited = errors.New("upstream rate limit")

	// ErrTransient is returned for temporary errors that might resolve on retry
	ErrTransient = errors.New("transient upstream error")

	// ErrTimeout is returned when a single generation call exceeds its deadline
	ErrTimeout = errors.New("generation call timed out")

	// ErrContentBlocked is returned when the upstream blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidResponse is returned when the upstream response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrRetriesExhausted is returned when rate-limit or transient failures
	// persist past the retry budget.
	ErrRetriesExhausted = errors.New("generation retries exhausted")

	// ErrInvalidConfig is returned when the generation configuration is invalid
	ErrInvalidConfig = errors.New("invalid generation configuration")
)

// IsRetryable reports whether err is worth retrying against the same model.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

var classified = []error{
	ErrModelUnavailable, ErrNoCredential, ErrAuth, ErrRateLimited, ErrTransient,
	ErrTimeout, ErrContentBlocked, ErrInvalidResponse, ErrRetriesExhausted,
}

// isClassified reports whether err already carries a taxonomy sentinel.
// Unclassified backend errors are treated as transient.
func isClassified(err error) bool {
	for _, target := range classified {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Outcome returns a short, low-cardinality label for err, suitable for
// metrics and structured logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrRetriesExhausted):
		return "exhausted"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, ErrContentBlocked):
		return "blocked"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrNoModelAvailable):
		return "no_model"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transient"
	}
}
