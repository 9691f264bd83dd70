// Package logger constructs the process-wide structured logger. It is built
// once in main and passed explicitly; nothing reads it from a global.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// NewNop returns a logger that discards everything; used by tests that don't
// assert on log output.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
