package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent expected conditions that callers check for with errors.Is().
// Missing entities are reported with the store's not-found errors (store.ErrNotFound
// and its entity-specific wrappers), which pass through the service layer unchanged.
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrAlreadyExists indicates the operation would create a second copy of a unique entity.
	// API layer should map this to HTTP 409 Conflict.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyCompleted indicates a finalized session was asked to change.
	// API layer should map this to HTTP 409 Conflict.
	ErrAlreadyCompleted = errors.New("already completed")

	// ErrEmptySelection indicates a selection policy matched no questions.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrEmptySelection = errors.New("no questions match the selection")

	// ErrMalformedEvent indicates a billing payload could not be interpreted.
	// API layer should map this to HTTP 400 Bad Request.
	ErrMalformedEvent = errors.New("malformed billing event")

	// ErrDuplicateIgnored reports that a billing event was already applied.
	// It is not a failure; API layer should acknowledge it with HTTP 200.
	ErrDuplicateIgnored = errors.New("duplicate event ignored")

	// ErrInvalidRequest indicates caller-supplied input failed validation.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidRequest = errors.New("invalid request")
)

// ServiceError wraps unexpected failures with the operation that produced them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review", "create_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// InvalidRequest wraps a validation failure so that it satisfies errors.Is(err, ErrInvalidRequest)
// while keeping the underlying cause.
func InvalidRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}
