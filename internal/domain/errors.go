package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or input fails validation.
	// ValidationError always wraps it, so callers can match with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuality is returned when a review quality is outside 0..5.
	ErrInvalidQuality = errors.New("invalid review quality")

	// ErrInvalidTimeSpent is returned when a review reports negative time spent.
	ErrInvalidTimeSpent = errors.New("time spent cannot be negative")
)

// ValidationError describes a rejected field value. It is never retried
// automatically; the caller has to fix the input.
type ValidationError struct {
	Field  string
	Value  any
	Reason error
}

// NewValidationError creates a ValidationError for the given field and value.
func NewValidationError(field string, value any, reason error) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("%s: %s=%v: %v", ErrValidation, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s=%v", ErrValidation, e.Field, e.Value)
}

// Unwrap exposes both ErrValidation and the specific reason to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Reason}
}

// IsValidationError reports whether err is (or wraps) a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
