package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain error for transport-layer mapping.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeInvalidStatus     ErrorCode = "INVALID_STATUS"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeTooLateToCancel   ErrorCode = "TOO_LATE_TO_CANCEL"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
)

// Error is a recoverable, user-facing domain error. It is never fatal to the
// process; the response layer translates Code into an HTTP status.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewNotFoundError reports a missing entity by type and identifier.
func NewNotFoundError(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewConflictError reports a state conflict (e.g. overlapping booking dates).
func NewConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// NewValidationError reports malformed or inconsistent input.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewInvalidStatusError reports an unrecognized status value.
func NewInvalidStatusError(status string) *Error {
	return &Error{Code: CodeInvalidStatus, Message: fmt.Sprintf("invalid booking status: %s", status)}
}

// NewInvalidTransitionError reports an illegal state machine edge.
func NewInvalidTransitionError(from, to string) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf("invalid status transition: %s -> %s", from, to)}
}

// NewTooLateToCancelError reports a cancellation rejected by the temporal guard.
func NewTooLateToCancelError() *Error {
	return &Error{Code: CodeTooLateToCancel, Message: "cannot cancel booking less than 24 hours before start date"}
}

// NewForbiddenError reports an action the actor is not allowed to perform.
func NewForbiddenError(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// CodeOf extracts the ErrorCode from err, or "" if err is not a domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
