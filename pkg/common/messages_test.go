// Package common provides tests for message and logging functionality
package common

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

// captureLogs installs a console logger writing to a buffer and restores the
// previous logger when the test ends.
func captureLogs(t *testing.T, verbosity int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := Logger()
	SetLogger(NewConsoleLogger(&buf, verbosity, false))
	t.Cleanup(func() { SetLogger(previous) })
	return &buf
}

func TestSetVerboseMode(t *testing.T) {
	// Test enabling verbose mode
	SetVerboseMode(true)
	if !VerboseMode {
		t.Error("SetVerboseMode(true) should enable verbose mode")
	}

	// Test disabling verbose mode
	SetVerboseMode(false)
	if VerboseMode {
		t.Error("SetVerboseMode(false) should disable verbose mode")
	}
}

func TestLogDebug_VerboseEnabled(t *testing.T) {
	buf := captureLogs(t, LevelDebug)
	SetVerboseMode(true)
	defer SetVerboseMode(false)

	LogDebug("Test debug message with value: %d", 42)

	output := buf.String()
	if !strings.Contains(output, "[DEBUG] Test debug message with value: 42") {
		t.Errorf("LogDebug output should contain formatted message, got: %q", output)
	}
}

func TestLogDebug_VerboseDisabled(t *testing.T) {
	buf := captureLogs(t, LevelDebug)
	SetVerboseMode(false)

	LogDebug("This should not appear: %d", 42)

	if buf.Len() != 0 {
		t.Errorf("LogDebug should be silent when verbose mode is disabled, got: %q", buf.String())
	}
}

func TestLogDebug_SinkVerbosityTooLow(t *testing.T) {
	buf := captureLogs(t, LevelInfo)
	SetVerboseMode(true)
	defer SetVerboseMode(false)

	LogDebug("filtered by sink")

	if buf.Len() != 0 {
		t.Errorf("LogDebug should be filtered by the sink verbosity, got: %q", buf.String())
	}
}

func TestLogLevels(t *testing.T) {
	testCases := []struct {
		name  string
		log   func(string, ...interface{})
		label string
	}{
		{"info", LogInfo, "[INFO]"},
		{"warn", LogWarn, "[WARN]"},
		{"error", LogError, "[ERROR]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogs(t, LevelInfo)
			tc.log("Test message with value: %s", "test")

			output := buf.String()
			if !strings.Contains(output, tc.label+" Test message with value: test") {
				t.Errorf("output should contain %s label and message, got: %q", tc.label, output)
			}
			if strings.Contains(output, "severity") || strings.Contains(output, "<nil>") {
				t.Errorf("output should not leak internal keys, got: %q", output)
			}
		})
	}
}

func TestLogFunctions_NoArgs(t *testing.T) {
	buf := captureLogs(t, LevelInfo)

	LogInfo("%s", "Simple message without %formatting")

	expected := "Simple message without %formatting"
	if !strings.Contains(buf.String(), expected) {
		t.Errorf("LogInfo without args should contain %q, got: %q", expected, buf.String())
	}
}

func TestConsoleSink_WithNameAndValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, LevelInfo, false).WithName("subchannel").WithValues("lba", 150)

	log.Info("Fixed P subchannel", "fix", "p")

	output := buf.String()
	if !strings.Contains(output, "[INFO] [subchannel] Fixed P subchannel lba=150 fix=p") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestConsoleSink_ColorLabels(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(&buf, LevelInfo, true).Info("coloured")

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected ANSI escape in coloured output, got: %q", buf.String())
	}
}

func TestSetLogger_ZeroValueDiscards(t *testing.T) {
	previous := Logger()
	defer SetLogger(previous)

	SetLogger(logr.Logger{})
	LogInfo("discarded") // must not panic
}

func TestFormatError(t *testing.T) {
	originalError := fmt.Errorf("original error")

	formattedError := FormatError("Base error message", originalError)

	expectedMessage := "Base error message: original error"
	if formattedError.Error() != expectedMessage {
		t.Errorf("FormatError() = %q, want %q", formattedError.Error(), expectedMessage)
	}
	if !errors.Is(formattedError, originalError) {
		t.Error("FormatError() should wrap the original error")
	}

	formattedDetails := FormatError("Base error message", 42)
	if formattedDetails.Error() != "Base error message: 42" {
		t.Errorf("FormatError() = %q, want %q", formattedDetails.Error(), "Base error message: 42")
	}
}

func TestFormatErrorString(t *testing.T) {
	err := FormatErrorString(ErrFailedToReadSector, "lba %d", 16)
	if err.Error() != "failed to read sector: lba 16" {
		t.Errorf("FormatErrorString() = %q", err.Error())
	}
}
