package store

import (
	"context"
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update affects no rows.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a unit of work fails to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUnknownLevel is returned by a QuestionPool for a level it has never heard of.
	ErrUnknownLevel = errors.New("unknown level")

	// ErrPoolUnavailable is returned when the question pool cannot supply
	// content for a level.
	ErrPoolUnavailable = errors.New("question pool unavailable")

	// ErrStoreUnavailable marks transient failures: lost connections,
	// serialization failures, deadlocks and timeouts. Operations failing with
	// it can be retried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Entity-specific "not found" errors

	// ErrProgressNotFound indicates that no progress exists for the learner and level.
	ErrProgressNotFound = fmt.Errorf("%w: level progress", ErrNotFound)

	// ErrReviewEntryNotFound indicates that the question was never missed by the learner.
	ErrReviewEntryNotFound = fmt.Errorf("%w: review entry", ErrNotFound)

	// ErrStatisticsNotFound indicates that no statistics exist for the learner and level.
	ErrStatisticsNotFound = fmt.Errorf("%w: level statistics", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrProgressExists is returned when progress is created twice for the same learner and level.
	ErrProgressExists = fmt.Errorf("%w: level progress", ErrDuplicate)

	// ErrAnswerEventExists is returned when an answer event ID has already been recorded.
	ErrAnswerEventExists = fmt.Errorf("%w: answer event", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsTransient reports whether err is worth retrying.
// Context cancellation is never transient; an expired deadline on a single
// store call is.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "level_progress", "review_entry")
	Operation string // The operation that failed (e.g., "get", "upsert")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
