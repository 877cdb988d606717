// Package logging builds the slog logger used across cassette.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessro/cassette/internal/config"
)

// Setup returns a logger for cfg. With a log file configured it writes
// JSON there; otherwise it writes text to stderr at the configured level,
// or at debug in verbose mode. The returned closer releases the file, if any.
func Setup(cfg config.LogConfig, verbose bool) (*slog.Logger, io.Closer, error) {
	return setup(cfg, verbose, os.Stderr)
}

func setup(cfg config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	if cfg.File != "" {
		logPath, err := expandHome(cfg.File)
		if err != nil {
			return nil, nil, err
		}

		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
		return slog.New(handler), f, nil
	}

	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nopCloser{}, nil
}

// ParseLevel converts a config level string to slog.Level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
