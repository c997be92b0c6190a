// Package errors provides structured error types for envctl.
package errors

import (
	"fmt"
)

// ErrorCode identifies specific error conditions
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeParse      ErrorCode = "PARSE_ERROR"
	ErrCodeBackup     ErrorCode = "BACKUP_ERROR"
	ErrCodeStore      ErrorCode = "STORE_ERROR"
	ErrCodeSync       ErrorCode = "SYNC_ERROR"
	ErrCodePolicy     ErrorCode = "POLICY_ERROR"
	ErrCodeIO         ErrorCode = "IO_ERROR"
	ErrCodePermission ErrorCode = "PERMISSION_DENIED"
)

// Error is the base error type for envctl
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Wrap creates a new error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds details to an error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to an error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// ValidationError creates a validation error
func ValidationError(message string, details map[string]interface{}) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resourceType, name),
		Details: map[string]interface{}{
			"resource_type": resourceType,
			"name":          name,
		},
	}
}

// ParseError creates a parse error
func ParseError(filePath string, err error) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: fmt.Sprintf("failed to parse %s", filePath),
		Cause:   err,
		Details: map[string]interface{}{
			"file": filePath,
		},
	}
}

// BackupError creates a backup operation error
func BackupError(operation string, err error) *Error {
	return &Error{
		Code:    ErrCodeBackup,
		Message: fmt.Sprintf("backup %s failed", operation),
		Cause:   err,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// StoreError creates a backup store error
func StoreError(store string, operation string, err error) *Error {
	return &Error{
		Code:    ErrCodeStore,
		Message: fmt.Sprintf("store %s failed during %s", store, operation),
		Cause:   err,
		Details: map[string]interface{}{
			"store":     store,
			"operation": operation,
		},
	}
}

// SyncError creates an environment synchronization error
func SyncError(target string, err error) *Error {
	return &Error{
		Code:    ErrCodeSync,
		Message: fmt.Sprintf("failed to synchronize to %s", target),
		Cause:   err,
		Details: map[string]interface{}{
			"target": target,
		},
	}
}

// Is checks if the error matches the given code
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
