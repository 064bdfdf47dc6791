package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestParseLogLevel tests accepted spellings and rejection
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"error", LogLevelError, false},
		{"warn", LogLevelWarn, false},
		{"warning", LogLevelWarn, false},
		{"info", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{" DEBUG ", LogLevelDebug, false},
		{"trace", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

// TestSetupLogger tests level filtering
func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "device", "/dev/input/event3")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "device=/dev/input/event3") {
		t.Errorf("warn record missing: %q", out)
	}

	if LogLevel("bogus").slogLevel() != slog.LevelInfo {
		t.Error("unknown level should map to info")
	}
}
