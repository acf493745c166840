package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"squint/internal/config"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("modules detected", "communities", 4, "modularity", 0.4166666, "duration", 3*time.Millisecond)

	output := buf.String()
	for _, want := range []string{"[info]", "modules detected", " | ", "communities=4", "modularity=0.4167", "duration=3ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be included: %s", output)
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("run", "abc").WithGroup("louvain")

	logger.Info("pass", "moves", 3)

	output := buf.String()
	if !strings.Contains(output, "run=abc") {
		t.Errorf("expected pre-set attribute, got: %s", output)
	}
	if !strings.Contains(output, "louvain.moves=3") {
		t.Errorf("expected grouped attribute, got: %s", output)
	}
}

func TestNewFormatLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewFormatLogger(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")

	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{5, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled for any level")
	}
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	if !strings.Contains(buf1.String(), "info message") || !strings.Contains(buf1.String(), "warn message") {
		t.Errorf("buf1 should contain both messages: %s", buf1.String())
	}
	if strings.Contains(buf2.String(), "info message") {
		t.Error("buf2 should not contain info message")
	}
	if !strings.Contains(buf2.String(), "warn message") {
		t.Error("buf2 should contain warn message")
	}
}

func TestNewCLILogger(t *testing.T) {
	root := t.TempDir()
	var stderr bytes.Buffer

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"

	logger, closer := NewCLILogger(cfg, CLIOptions{RepoRoot: root, Stderr: &stderr})
	logger.Info("ingest complete", "symbols", 12)
	logger.Warn("index older than database")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if strings.Contains(stderr.String(), "ingest complete") {
		t.Error("console should stay at warn without -v")
	}
	if !strings.Contains(stderr.String(), "index older than database") {
		t.Error("console should show warnings")
	}

	data, err := os.ReadFile(filepath.Join(root, ".squint", "logs", "squint.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "symbols=12") {
		t.Errorf("file log should contain info records: %s", data)
	}
}

func TestNewCLILogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.File = false

	var stderr bytes.Buffer
	logger, closer := NewCLILogger(cfg, CLIOptions{RepoRoot: t.TempDir(), Verbosity: 1, Stderr: &stderr})
	defer closer.Close()

	logger.Info("visible")
	if !strings.Contains(stderr.String(), "visible") {
		t.Errorf("-v should show info on the console: %s", stderr.String())
	}
}
