package common

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected slog.Level
	}{
		{"error level", LogLevelError, slog.LevelError},
		{"warn level", LogLevelWarn, slog.LevelWarn},
		{"info level", LogLevelInfo, slog.LevelInfo},
		{"debug level", LogLevelDebug, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.level)
			if logger == nil || logger.Logger == nil {
				t.Fatal("expected logger, got nil")
			}
			if tt.level.ToSlogLevel() != tt.expected {
				t.Fatalf("ToSlogLevel() = %v, want %v", tt.level.ToSlogLevel(), tt.expected)
			}
			if logger.Level() != tt.level {
				t.Fatalf("Level() = %v, want %v", logger.Level(), tt.level)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{" WARNING ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLoggerWithFormat(t *testing.T) {
	for _, format := range []string{"", "text", "json", "color", "COLOUR"} {
		if l, err := NewLoggerWithFormat(format, LogLevelInfo); err != nil || l == nil {
			t.Fatalf("NewLoggerWithFormat(%q) = %v, %v", format, l, err)
		}
	}
	if _, err := NewLoggerWithFormat("xml", LogLevelInfo); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo)

	logger.WithComponent("migrator").WithStore("postgres").WithMigration("2024_01_01_00_00_init.sql").Info("applied")

	out := buf.String()
	for _, want := range []string{"component=migrator", "store=postgres", "migration=2024_01_01_00_00_init.sql", "msg=applied"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("expected default logger, got nil")
	}

	var buf bytes.Buffer
	SetDefaultLogger(NewLoggerTo(&buf, LogLevelDebug))
	defer SetDefaultLogger(NewLogger(LogLevelInfo))

	LogInfo("test info message", "key", "value")
	LogDebug("test debug message")
	LogWarn("test warn message")
	LogError("test error message", nil)

	output := buf.String()
	for _, want := range []string{"test info message", "test debug message", "test warn message", "test error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
