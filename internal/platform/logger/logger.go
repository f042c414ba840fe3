package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Components derive their
// own via log.With("component", name).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
