package slogutil

import (
	"io"
	"log/slog"
	"os"

	"squint/internal/config"
	"squint/internal/paths"
)

// CLIOptions are the logging inputs gathered by the command line.
type CLIOptions struct {
	RepoRoot  string
	Verbosity int
	Quiet     bool
	// Stderr receives console output; nil means os.Stderr.
	Stderr io.Writer
}

// NewCLILogger builds the logger for one squint invocation. Console output
// follows the -v/--quiet flags. When file logging is enabled the log also
// goes to .squint/logs/squint.log at the configured level, rotated by size.
// The returned closer is never nil.
func NewCLILogger(cfg *config.Config, opts CLIOptions) (*slog.Logger, io.Closer) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	consoleLevel := LevelFromVerbosity(opts.Verbosity, opts.Quiet)
	console := NewFormatLogger(stderr, cfg.Logging.Format, consoleLevel).Handler()

	if !cfg.Logging.File || opts.RepoRoot == "" {
		return slog.New(console), nopCloser{}
	}
	if _, err := paths.EnsureLogsDir(opts.RepoRoot); err != nil {
		return slog.New(console), nopCloser{}
	}

	fileLevel := LevelFromString(cfg.Logging.Level)
	if opts.Verbosity >= 2 {
		fileLevel = slog.LevelDebug
	}
	fileLogger, closer, err := NewFileLoggerWithRotation(
		paths.GetLogPath(opts.RepoRoot), fileLevel, cfg.Logging.MaxSize, cfg.Logging.MaxBackups)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("file logging disabled", "error", err.Error())
		return logger, nopCloser{}
	}

	return slog.New(NewTeeHandler(console, fileLogger.Handler())), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
