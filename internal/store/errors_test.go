package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrItemNotFound",
			err:      ErrItemNotFound,
			expected: true,
		},
		{
			name:     "StoreError wrapping ErrItemNotFound",
			err:      NewStoreError("review_item", "load", "missing", ErrItemNotFound),
			expected: true,
		},
		{
			name:     "ErrConflict",
			err:      ErrConflict,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsConflictError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ErrConflict",
			err:      ErrConflict,
			expected: true,
		},
		{
			name:     "wrapped ErrConflict",
			err:      fmt.Errorf("save failed: %w", ErrConflict),
			expected: true,
		},
		{
			name:     "ErrDuplicate",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConflictError(tt.err); got != tt.expected {
				t.Errorf("IsConflictError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestItemExistsIsDuplicate(t *testing.T) {
	if !errors.Is(ErrItemExists, ErrDuplicate) {
		t.Errorf("ErrItemExists should wrap ErrDuplicate")
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("review_item", "save", "database error", originalErr)

	expectedErrorString := "save operation on review_item failed: database error: database connection failed"
	if got := storeErr.Error(); got != expectedErrorString {
		t.Errorf("StoreError.Error() = %v, want %v", got, expectedErrorString)
	}

	if got := storeErr.Unwrap(); !errors.Is(got, originalErr) {
		t.Errorf("StoreError.Unwrap() not returning original error")
	}

	withoutCause := NewStoreError("review_item", "load", "bad identifier", nil)
	if got := withoutCause.Error(); got != "load operation on review_item failed: bad identifier" {
		t.Errorf("StoreError.Error() = %v", got)
	}
}
