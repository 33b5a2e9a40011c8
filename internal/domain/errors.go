package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or input fails validation.
	// Concrete failures are reported as *ValidationError values wrapping it.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStatus is returned when a task status is not one of the defined values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is not one of the defined values.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrEmptyID is returned when a required identifier is the zero UUID.
	ErrEmptyID = errors.New("identifier cannot be empty")
)

// ValidationError describes a single invalid field. It always unwraps to
// ErrValidation so callers can use errors.Is(err, domain.ErrValidation).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrValidation and, when present, the more specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil && !errors.Is(e.Err, ErrValidation) {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// NewValidationError creates a ValidationError for the given field.
// err may be nil or a more specific sentinel such as ErrInvalidStatus.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
