// internal/utils/errors_test.go
package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrorChain(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := WrapError(cause, ErrCodeAdapterFailed, "scan failed")

	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause must be reachable via errors.Is")
	}
	if !errors.Is(err, NewError(ErrCodeAdapterFailed, "other message")) {
		t.Errorf("structured errors must match by code")
	}
	if errors.Is(err, NewError(ErrCodeExportFailed, "")) {
		t.Errorf("different codes must not match")
	}

	msg := err.Error()
	if msg != "ADAPTER_FAILED: scan failed: connection reset" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"structured retryable", NewError(ErrCodeDashboardFailed, "x").WithRetryable(true), true},
		{"structured not retryable", NewError(ErrCodeInvalidConfig, "x"), false},
		{"plain timeout", fmt.Errorf("request timeout exceeded"), true},
		{"plain 503", fmt.Errorf("got 503 service unavailable"), true},
		{"plain other", fmt.Errorf("no such host entry"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
