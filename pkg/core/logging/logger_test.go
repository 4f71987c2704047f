package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestLevel_Constants(t *testing.T) {
	if LevelDebug != 0 {
		t.Errorf("LevelDebug = %d, want 0", LevelDebug)
	}
	if LevelInfo != 1 {
		t.Errorf("LevelInfo = %d, want 1", LevelInfo)
	}
	if LevelWarn != 2 {
		t.Errorf("LevelWarn = %d, want 2", LevelWarn)
	}
	if LevelError != 3 {
		t.Errorf("LevelError = %d, want 3", LevelError)
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
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
		{"debug", LevelDebug},
		{"trace", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"invalid", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("listener")

	if cfg.Name != "listener" {
		t.Errorf("Name = %v, want listener", cfg.Name)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Format = %v, want console", cfg.Format)
	}
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Name:   "listener",
		Level:  "info",
		Format: "json",
		Output: &buf,
	})

	logger.Info("segment captured", "words", 4, "text", "what is your name")
	logger.Debug("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v", err)
	}
	if entry["msg"] != "segment captured" {
		t.Errorf("msg = %v, want segment captured", entry["msg"])
	}
	if entry["logger"] != "listener" {
		t.Errorf("logger = %v, want listener", entry["logger"])
	}
	if entry["words"] != float64(4) {
		t.Errorf("words = %v, want 4", entry["words"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestLogger_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Name: "test", Level: "error", Format: "json", Output: &buf})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %q", buf.String())
	}

	debug := logger.WithLevel(LevelDebug)
	if debug.Name() != "test" {
		t.Errorf("name should be preserved: got %v", debug.Name())
	}
	debug.Debug("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("debug entry missing after WithLevel: %q", buf.String())
	}
}

func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Name: "souffleur", Format: "json", Output: &buf})

	child := logger.Named("audio")
	if child.Name() != "souffleur.audio" {
		t.Errorf("Name() = %v, want souffleur.audio", child.Name())
	}
	child.Info("opened")
	if !strings.Contains(buf.String(), `"logger":"souffleur.audio"`) {
		t.Errorf("child name missing in output: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Name: "test", Format: "json", Output: &buf}).With("session", "abc")

	logger.Warn("retrying")
	if !strings.Contains(buf.String(), `"session":"abc"`) {
		t.Errorf("context field missing: %q", buf.String())
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Name: "test", Format: "text", Output: &buf})

	logger.Error("device lost", "device", "USB Mic")
	if !strings.Contains(buf.String(), "device lost") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestLogger_AdditionalOutputs(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Name:              "test",
		Format:            "json",
		Output:            &primary,
		AdditionalOutputs: []io.Writer{&extra},
	})

	logger.Info("one")
	if !strings.Contains(primary.String(), "one") {
		t.Errorf("primary output missing entry: %q", primary.String())
	}
	if primary.String() != extra.String() {
		t.Errorf("outputs differ: %q vs %q", primary.String(), extra.String())
	}
}

func TestNop(t *testing.T) {
	logger := Nop()

	// Should not panic
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")
	logger.Info("message", "key1", "value1", "orphan")

	if logger.WithLevel(LevelDebug) != logger {
		t.Error("WithLevel on a nop logger should return the same logger")
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Name: "benchmark", Format: "json", Output: &buf})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
