// Package logging provides the slog.Logger factory used by repobrowse commands.
//
// Log format is controlled by the LOG_FORMAT environment variable:
//
//	LOG_FORMAT=json    structured JSON, suitable for log aggregators (default)
//	LOG_FORMAT=text    human-readable key=value pairs, for local development
//
// Log level is controlled by LOG_LEVEL (debug, info, warn, error; default info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger configured from environment variables, writing to
// stderr so command output on stdout stays machine-readable. Every record
// carries a "service" attribute.
func New(service string) *slog.Logger {
	return NewWithWriter(os.Stderr, service, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

// NewWithWriter is New with explicit destination, format and level.
func NewWithWriter(w io.Writer, service, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text", "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	log := slog.New(handler)
	if service != "" {
		log = log.With("service", service)
	}
	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
