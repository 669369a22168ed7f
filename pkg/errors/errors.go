// Package errors provides structured error types for the Levelforge application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the engine's degradation taxonomy: almost every code
// marks a condition that skips a file or node and lets the run continue.
// Only LEVEL_NOT_FOUND, ROOT_NOT_FOUND, and INTERNAL_ERROR are run-level
// failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "invalid JSON in %s", path)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // Skip this file, continue the scan
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "copy %s", path)
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
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidLevel Code = "INVALID_LEVEL"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Degradable scan/copy errors (file or node skipped, run continues)
	ErrCodeParse          Code = "PARSE_ERROR"
	ErrCodeUnresolvedRef  Code = "UNRESOLVED_REFERENCE"
	ErrCodeResolutionMiss Code = "RESOLUTION_MISS"
	ErrCodeIO             Code = "IO_ERROR"
	ErrCodeDuplicateKey   Code = "DUPLICATE_KEY"

	// Run-level failures
	ErrCodeLevelNotFound  Code = "LEVEL_NOT_FOUND"
	ErrCodeRootNotFound   Code = "ROOT_NOT_FOUND"
	ErrCodeReportNotFound Code = "REPORT_NOT_FOUND"
	ErrCodeInternal       Code = "INTERNAL_ERROR"
	ErrCodeUnsupported    Code = "UNSUPPORTED"
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRunFailure reports whether the error should abort the whole run
// instead of degrading to a skipped file or node.
func IsRunFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeLevelNotFound, ErrCodeRootNotFound, ErrCodeInternal:
		return true
	}
	return false
}
