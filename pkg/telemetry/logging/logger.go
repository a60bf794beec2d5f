// Package logging configures the process-wide structured logger.
//
// All components log through log/slog with a component attribute, e.g.
// slog.Default().With("component", "dispatch"). This package translates
// logging configuration into a slog handler and installs it as the default.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New builds a slog.Logger from logging configuration and installs it as
// the process default. Output goes to stderr.
func New(level, format string, addSource bool) (*slog.Logger, error) {
	return NewWithWriter(os.Stderr, level, format, addSource)
}

// NewWithWriter is New with an explicit output writer, used by tests.
func NewWithWriter(w io.Writer, level, format string, addSource bool) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: json, text)", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// parseLevel maps a configuration level string to a slog.Level.
func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", level)
	}
}
