// Package errors provides structured error types for the nbkernels application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code identifies one failure class of the engine:
//   - OUTSIDE_WORKSPACE: mutating operation on a path outside the workspace boundary
//   - INVALID_ENVIRONMENT: path does not qualify as an interpreter environment
//   - MISSING_KERNELSPEC: environment lacks a kernelspec and strict mode requires one
//   - LOCK_TIMEOUT: registry lock could not be acquired in time (retryable)
//   - IO_FAILURE: filesystem access error, surfaced with path context
//   - MALFORMED_KERNELSPEC: a kernel.json could not be parsed (per-entry, non-fatal)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidEnvironment, "not a Python environment: %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidEnvironment) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIOFailure, origErr, "write registry %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidEnvironment Code = "INVALID_ENVIRONMENT"
	ErrCodeOutsideWorkspace   Code = "OUTSIDE_WORKSPACE"
	ErrCodeMissingKernelspec  Code = "MISSING_KERNELSPEC"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeKernelNotFound Code = "KERNEL_NOT_FOUND"

	// Concurrency and filesystem errors
	ErrCodeLockTimeout Code = "LOCK_TIMEOUT"
	ErrCodeIOFailure   Code = "IO_FAILURE"

	// Per-entry synthesis errors
	ErrCodeMalformedKernelspec Code = "MALFORMED_KERNELSPEC"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether the error represents transient contention
// that the caller may retry. Only lock timeouts qualify.
func IsRetryable(err error) bool {
	return Is(err, ErrCodeLockTimeout)
}
