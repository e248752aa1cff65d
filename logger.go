package dexkeep

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
)

// WithLogger returns a copy of ctx carrying log.
func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// LoggerFrom returns the logr.Logger carried by ctx, or one that
// discards everything.
func LoggerFrom(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// NewLogger returns a logr.Logger backed by a text slog.Handler writing
// to w. Verbosity 0 logs errors only; each increment lowers the level by
// one slog step, so 2 logs at info and 3 at debug.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return logr.FromSlogHandler(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.Level(int(slog.LevelError) - 4*verbosity),
		}),
	)
}
