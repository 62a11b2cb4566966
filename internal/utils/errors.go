// Package utils provides the logging and error-classification utilities
// shared by the mining engine and its collaborators.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode categorizes the failures this system can raise.
type ErrorCode string

const (
	// Page/adapter related
	ErrCodeAdapterFailed ErrorCode = "ADAPTER_FAILED"
	ErrCodeNoCardsFound  ErrorCode = "NO_CARDS_FOUND"
	ErrCodeBlockDetected ErrorCode = "BLOCK_DETECTED"

	// Persistence related
	ErrCodeSnapshotFailed ErrorCode = "SNAPSHOT_FAILED"
	ErrCodeExportFailed   ErrorCode = "EXPORT_FAILED"

	// Dashboard related
	ErrCodeDashboardFailed ErrorCode = "DASHBOARD_FAILED"
	ErrCodeAuthFailed      ErrorCode = "AUTH_FAILED"

	// Configuration related
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Generic
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries an error code and retryability alongside the
// message, so callers can branch on category instead of string matching.
type StructuredError struct {
	Code      ErrorCode
	Message   string
	Cause     error
	Retryable bool
	Timestamp time.Time
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches structured errors by code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// NewError creates a structured error with the given code and message.
func NewError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapError wraps an existing error with a code and message.
func WrapError(err error, code ErrorCode, message string) *StructuredError {
	se := NewError(code, message)
	se.Cause = err
	return se
}

// WithRetryable marks the error as retryable and returns it.
func (e *StructuredError) WithRetryable(retryable bool) *StructuredError {
	e.Retryable = retryable
	return e
}

// IsRetryableError reports whether the error should be retried. Structured
// errors carry the flag explicitly; plain errors fall back to pattern
// matching on common transient failures.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*StructuredError); ok {
		return se.Retryable
	}

	msg := strings.ToLower(err.Error())
	patterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"503 service unavailable",
		"502 bad gateway",
		"504 gateway timeout",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
