package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// Output is discarded unless TEST_DEBUG is set, in which case debug logs go to stdout.
func NewTestLogger() *slog.Logger {
	if os.Getenv("TEST_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return NewLogger(Config{
		Level:  slog.LevelDebug,
		Format: "text",
		Output: os.Stdout,
	})
}
