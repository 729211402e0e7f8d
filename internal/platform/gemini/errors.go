package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/redact"
	"google.golang.org/genai"
)

// classifyError maps an SDK error onto the generation taxonomy. Messages are
// redacted because the SDK can echo request details.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return err
		}
		apiErr = *apiErrPtr
	}

	var sentinel error
	switch {
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
		sentinel = generation.ErrAuth
	case apiErr.Code == http.StatusBadRequest && isKeyProblem(apiErr):
		// Gemini reports bad keys as INVALID_ARGUMENT.
		sentinel = generation.ErrAuth
	case apiErr.Code == http.StatusNotFound, apiErr.Code == http.StatusBadRequest:
		sentinel = generation.ErrModelUnavailable
	case apiErr.Code == http.StatusTooManyRequests:
		sentinel = generation.ErrRateLimited
	default:
		// 408, 5xx and anything unrecognised are worth another attempt.
		sentinel = generation.ErrTransient
	}

	return fmt.Errorf("%w: gemini %d %s: %s",
		sentinel, apiErr.Code, apiErr.Status, redact.String(apiErr.Message))
}

func isKeyProblem(e genai.APIError) bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key")
}
