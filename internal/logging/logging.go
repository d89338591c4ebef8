// Package logging configures the process-wide structured logger. Grounded
// on barnettlynn-nfctools' reset/main.go: a verbose flag selects
// slog.LevelDebug over slog.LevelInfo, and a format flag selects the JSON
// or text handler.
package logging

import (
	"log/slog"
	"os"
)

// Options controls the logger Setup installs as the slog default.
type Options struct {
	Verbose bool
	Format  string // "json" or "text"
}

// Setup builds a slog.Logger per opts and installs it as slog's default,
// returning it for callers that prefer an explicit reference.
func Setup(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
