package apperror

import (
	"context"
	"errors"
	"fmt"
)

// Code is the machine-readable classification carried by every business
// error that crosses a component boundary.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeForbidden      Code = "FORBIDDEN"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeProcessing     Code = "PROCESSING_ERROR"
	CodeStorageTimeout Code = "STORAGE_TIMEOUT"
	CodeStorage        Code = "STORAGE_ERROR"
)

// Error is a coded error with a human-readable message. Callers branch on
// the code; the message is safe to surface to users.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so that errors.Is(err, apperror.NotFound(""))
// style comparisons work across wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func InvalidState(message string) *Error { return New(CodeInvalidState, message) }
func Validation(message string) *Error   { return New(CodeValidation, message) }

func Processing(message string, err error) *Error {
	return Wrap(CodeProcessing, message, err)
}

// Storage wraps a persistence failure, classifying context deadline
// expiration as a retryable timeout.
func Storage(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(CodeStorageTimeout, "storage operation timed out", err)
	}
	return Wrap(CodeStorage, "storage operation failed", err)
}

// CodeOf extracts the code from an error chain, defaulting to CodeStorage
// for unclassified failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// MessageOf extracts the user-facing message from an error chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
