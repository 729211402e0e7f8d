// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or returned in error responses. Upstream SDK errors can
// echo request URLs, headers or keys; everything that leaves the process through
// a log line or an error body should pass through this package first.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules are applied in order; provider key formats come before the generic
// key=value rule so that the more specific placeholder wins.
var rules = []rule{
	// Google API keys (Gemini)
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{30,}`), RedactedKeyPlaceholder},
	// OpenAI secret and project keys
	{regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{16,}`), RedactedKeyPlaceholder},
	// Authorization headers
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]{8,}`), "Bearer " + RedactedCredentialPlaceholder},
	// ?key=... and &key=... query parameters
	{regexp.MustCompile(`(?i)([?&](?:key|api_key|access_token)=)[^&\s"':]+`), "${1}" + RedactedKeyPlaceholder},
	// x-goog-api-key: ... style headers and api_key=... assignments
	{
		regexp.MustCompile(`(?i)\b(x-goog-api-key|api[_-]?key|token|secret|password)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedCredentialPlaceholder,
	},
	// Email addresses
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
	// Absolute file system paths, e.g. font locations
	{regexp.MustCompile(`(^|\s)(?:/[\w.-]+){2,}`), "${1}" + RedactedPathPlaceholder},
	// Stack trace fragments
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
