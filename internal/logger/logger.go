// Package logger provides structured logging configuration for the services.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format (production default)
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in human-readable text format (development default)
	FormatText LogFormat = "text"
)

// New creates a structured logger for the named service based on LOG_LEVEL
// (debug, info, warn, error; default info) and LOG_FORMAT (json, text;
// default json). Every record carries a "service" attribute.
func New(service string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, parseLevel(os.Getenv("LOG_LEVEL")), parseFormat(os.Getenv("LOG_FORMAT")))
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(w io.Writer, service string, level slog.Level, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations only when the threshold is warn or above.
		AddSource: level >= slog.LevelWarn,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	return l
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

func parseFormat(s string) LogFormat {
	if strings.ToLower(s) == "text" {
		return FormatText
	}
	return FormatJSON
}

// SetDefault sets the given logger as the default slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
