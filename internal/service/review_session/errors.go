package review_session

import (
	"errors"
	"fmt"

	"github.com/phrazzld/curator-srs/internal/store"
)

// Common error types for the review session service
var (
	// ErrSessionNotInProgress indicates an operation that requires a running session.
	ErrSessionNotInProgress = errors.New("session is not in progress")

	// ErrSessionAlreadyStarted indicates Start was called on a session that already left not_started.
	ErrSessionAlreadyStarted = errors.New("session already started")

	// ErrSessionNotFound indicates that no live session exists for the ID and user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrItemNotInSession indicates a review for an item outside the session queue.
	ErrItemNotInSession = errors.New("item is not part of this session")

	// ErrItemNotOwned indicates that the user does not own the item.
	ErrItemNotOwned = errors.New("unauthorized access: item not owned by user")

	// ErrItemNotEnabled indicates that spaced repetition is off for the item.
	// It matches store.ErrNotFound because a disabled item has no active schedule.
	ErrItemNotEnabled = fmt.Errorf("%w: spaced repetition not enabled for item", store.ErrNotFound)
)

// ServiceError wraps errors from the review session service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching. The wrapped error is preserved, so
// store errors such as store.ErrConflict still match with errors.Is.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session", "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_review",
		Message:   message,
		Err:       err,
	}
}

// NewReviewQueueError returns a new ServiceError for the review_queue operation.
func NewReviewQueueError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "review_queue",
		Message:   message,
		Err:       err,
	}
}

// NewItemError returns a new ServiceError for an item lifecycle operation.
func NewItemError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
