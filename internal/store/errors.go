package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrResourceBusy is returned when a task cannot claim its resource
	// because another task holding the same resource key is already running.
	// This is a user-facing conflict, not a system fault.
	ErrResourceBusy = errors.New("resource already has a running task")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrCandidateNotFound indicates that the requested candidate does not exist in the store.
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)

	// ErrMatchNotFound indicates that the requested match result does not exist in the store.
	ErrMatchNotFound = fmt.Errorf("%w: match result", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsResourceBusyError checks if the error is a resource lock conflict.
func IsResourceBusyError(err error) bool {
	return errors.Is(err, ErrResourceBusy)
}
