// Package logging builds the structured logger shared by the generator, sinks and server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/willfong/portfolio-generator/internal/config"
)

// New builds a slog.Logger writing to stderr, so generated data on stdout stays clean.
func New(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	return NewWithWriter(os.Stderr, cfg, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
