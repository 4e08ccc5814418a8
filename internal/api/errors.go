package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/curator-srs/internal/domain"
	"github.com/phrazzld/curator-srs/internal/service/review_session"
	"github.com/phrazzld/curator-srs/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case domain.IsValidationError(err),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review_session.ErrItemNotInSession):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, review_session.ErrItemNotOwned):
		return http.StatusForbidden

	// Not found errors; ErrItemNotEnabled matches store.ErrNotFound
	case errors.Is(err, review_session.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, review_session.ErrSessionNotInProgress),
		errors.Is(err, review_session.ErrSessionAlreadyStarted):
		return http.StatusConflict

	// Default: internal server error
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

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s", validationErr.Field)
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid item state"
	case errors.Is(err, review_session.ErrItemNotInSession):
		return "Item is not part of this session"
	case errors.Is(err, review_session.ErrItemNotOwned):
		return "You do not own this item"
	case errors.Is(err, review_session.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, review_session.ErrItemNotEnabled):
		return "Spaced repetition is not enabled for this item"
	case errors.Is(err, store.ErrNotFound):
		return "Item not found"
	case errors.Is(err, store.ErrConflict):
		return "Item was modified concurrently, reload and retry"
	case errors.Is(err, store.ErrDuplicate):
		return "Item already exists"
	case errors.Is(err, review_session.ErrSessionNotInProgress):
		return "Session is not in progress"
	case errors.Is(err, review_session.ErrSessionAlreadyStarted):
		return "Session already started"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns request validation failures into a
// user-friendly message naming the first offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Validation error"
	}

	fe := fieldErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
