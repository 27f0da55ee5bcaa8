package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

func newTestLogger(format string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Name:   "test",
		Level:  "debug",
		Format: format,
		Output: &buf,
	})
	return logger, &buf
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{" warning ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.name != "test-service" {
		t.Errorf("name = %v, want test-service", logger.name)
	}
	if logger.Level() != LevelInfo {
		t.Errorf("Level() = %v, want info", logger.Level())
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newTestLogger("json")
	logger.WithCorrelationID("run-1").Info("converted", "rows", 5, "format", "csv")

	line := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"message":"converted"`,
		`"logger":"test"`,
		`"correlation_id":"run-1"`,
		`"rows":5`,
		`"format":"csv"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q does not contain %s", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("JSON entries should end with a newline")
	}
}

func TestLogger_TextOutput(t *testing.T) {
	logger, buf := newTestLogger("text")
	logger.Warn("row skipped", "row", 3, "header", "Hétfő")

	line := buf.String()
	for _, want := range []string{"[WRN]", "{test}", "row skipped", "[header=Hétfő row=3]"} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q does not contain %q", line, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger("text")
	logger = logger.WithLevel(LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("error message should be logged")
	}
}

func TestLogger_WithFieldsDoNotLeak(t *testing.T) {
	logger, buf := newTestLogger("text")
	child := logger.With("component", "docx")

	logger.Info("parent")
	if strings.Contains(buf.String(), "component") {
		t.Error("fields of a derived logger leaked into the parent")
	}

	buf.Reset()
	child.Info("child")
	if !strings.Contains(buf.String(), "component=docx") {
		t.Errorf("derived logger lost its field: %q", buf.String())
	}
}

func TestLogger_OddKeyValues(t *testing.T) {
	logger, buf := newTestLogger("text")
	logger.Info("odd", "key", "value", "dangling", 42, "n")

	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("output %q should contain key=value", buf.String())
	}
}

func TestLogger_LogError(t *testing.T) {
	logger, buf := newTestLogger("json")
	err := apperrors.New("input not found").
		WithCode(apperrors.CodeNotFound).
		WithOperation("docx.Open").
		WithDetail("path", "menu.docx")

	logger.LogError("conversion failed", err)

	line := buf.String()
	for _, want := range []string{
		`"level":"error"`,
		`"error_code":"NOT_FOUND"`,
		`"operation":"docx.Open"`,
		`"path":"menu.docx"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q does not contain %s", line, want)
		}
	}

	buf.Reset()
	logger.LogError("nothing", nil)
	if buf.Len() != 0 {
		t.Error("LogError(nil) should not log")
	}
}

func TestTimer_Stop(t *testing.T) {
	logger, buf := newTestLogger("text")
	timer := logger.StartTimer("convert").WithLevel(LevelInfo)
	time.Sleep(time.Millisecond)

	if d := timer.Stop("rows", 2); d <= 0 {
		t.Errorf("Stop() = %v, want positive duration", d)
	}
	if !strings.Contains(buf.String(), "operation=convert") {
		t.Errorf("timer output %q missing operation", buf.String())
	}
	if d := timer.Stop(); d != 0 {
		t.Errorf("second Stop() = %v, want 0", d)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("discarded", "key", "value")
}
