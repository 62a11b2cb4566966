// internal/utils/logger_test.go
package utils

import (
	"strings"
	"testing"
)

func TestLoggerLevelGating(t *testing.T) {
	var buf strings.Builder
	logger := &SimpleLogger{level: WarnLevel, out: &buf, fields: map[string]interface{}{}}

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("visible warn")
	logger.Errorf("visible %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level must be suppressed: %q", out)
	}
	if !strings.Contains(out, "visible warn") || !strings.Contains(out, "visible error") {
		t.Errorf("messages at or above the level must be emitted: %q", out)
	}
}

func TestLoggerFieldsAreDeterministic(t *testing.T) {
	var buf strings.Builder
	base := &SimpleLogger{level: InfoLevel, out: &buf, fields: map[string]interface{}{}}

	logger := base.WithFields(map[string]interface{}{"b": 2, "a": 1, "c": 3})
	logger.Info("hello")

	if !strings.Contains(buf.String(), "{a=1, b=2, c=3}") {
		t.Errorf("fields must render sorted: %q", buf.String())
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf strings.Builder
	base := &SimpleLogger{level: InfoLevel, out: &buf, fields: map[string]interface{}{}}

	base.WithField("component", "miner")
	base.Info("plain")

	if strings.Contains(buf.String(), "component") {
		t.Errorf("parent logger must stay untouched: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"", InfoLevel},
		{"loud", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
