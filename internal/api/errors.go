package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/service"
	"github.com/hirewire/talent-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsResourceBusyError(err),
		errors.Is(err, service.ErrTaskNotRetryable):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidTaskKind),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrMissingPayload),
		errors.Is(err, domain.ErrEmptyResourceKey),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest

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

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrCandidateNotFound):
		return "Candidate not found"

	case errors.Is(err, store.ErrMatchNotFound):
		return "Match result not found"

	case errors.Is(err, store.ErrResourceBusy):
		return "A task is already running for this resource"

	case errors.Is(err, service.ErrTaskNotRetryable):
		return "Task is not retryable"

	case errors.Is(err, domain.ErrInvalidTaskKind):
		return "Invalid task kind"

	case errors.Is(err, domain.ErrMissingPayload):
		return "Task payload is missing or does not match its kind"

	case errors.Is(err, domain.ErrInvalidTransition):
		return "Task is not in a state that allows this operation"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'CreateTaskRequest.Kind' Error:Field validation
	// for 'Kind' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
