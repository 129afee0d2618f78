// Package logging provides structured logging utilities.
//
// The default console format is:
// [HH:MM:SS] [LEVEL] [SCOPE] message key=value
package logging

import (
	"log/slog"
	"os"

	"github.com/ledgermatch/ledgermatch/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithScope creates a logger with a scope prefix (e.g., "reconcile",
// "amazon", "api"). Useful for loggers injected into subsystems.
func NewLoggerWithScope(cfg config.LoggingConfig, scope string) *slog.Logger {
	logger := NewLogger(cfg)
	return logger.With("scope", scope)
}
