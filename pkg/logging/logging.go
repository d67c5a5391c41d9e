// Package logging installs the process-wide slog.Logger every
// component's constructor threads through as its operational logger
// (ambient stack §1; LogStream is the separate caller-visible event
// bus and is not a replacement for this). Grounded on the teacher's
// pkg/logger/logger.go.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a case-insensitive level name to a slog.Level,
// defaulting to Warn for anything unrecognized.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Init installs a level-filtering slog.Handler as the process default:
// format "json" uses slog.NewJSONHandler, anything else (including
// "" and "text") uses slog.NewTextHandler. The wrapping levelFilter
// drops every record below level; records are not filtered by the
// package that emitted them.
func Init(level slog.Level, output *os.File, format string) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(&levelFilter{handler: handler, minLevel: level})
	slog.SetDefault(logger)
	return logger
}

// levelFilter enforces minLevel even when the wrapped handler would
// otherwise accept a lower one, so swapping handler implementations
// never silently widens the configured verbosity.
type levelFilter struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (f *levelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= f.minLevel && f.handler.Enabled(ctx, level)
}

func (f *levelFilter) Handle(ctx context.Context, record slog.Record) error {
	return f.handler.Handle(ctx, record)
}

func (f *levelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelFilter{handler: f.handler.WithAttrs(attrs), minLevel: f.minLevel}
}

func (f *levelFilter) WithGroup(name string) slog.Handler {
	return &levelFilter{handler: f.handler.WithGroup(name), minLevel: f.minLevel}
}
