package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a request or entity fails validation.
	// It is usually reached through a *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyPaper is returned when a document has no paper text.
	ErrEmptyPaper = errors.New("paper text cannot be empty")

	// ErrInvalidSource is returned when a document source is not recognised.
	ErrInvalidSource = errors.New("invalid document source")
)

// ValidationError reports which request field was rejected and why.
// It is the only error produced before any network or rendering work starts.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError creates a ValidationError for field. A nil err defaults
// to ErrValidation so that errors.Is(err, ErrValidation) always holds.
func NewValidationError(field, reason string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

// Unwrap exposes the underlying sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation for every ValidationError regardless of the
// wrapped sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
