// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction.
type Config struct {
	Level     string    // debug, info, warn, error
	Format    string    // text or json
	Output    io.Writer // defaults to stderr
	AddSource bool
}

var levelVar slog.LevelVar

// New builds a logger from cfg. The level is held in a process-wide
// LevelVar, so SetLevel affects loggers already handed out.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	levelVar.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     &levelVar,
		AddSource: cfg.AddSource,
	}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// SetLevel adjusts the log level at runtime (config hot reload).
func SetLevel(level string) {
	levelVar.Set(ParseLevel(level))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
