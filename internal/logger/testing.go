package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests that discards everything.
// Set BARVIZ_TEST_DEBUG to see debug output on stderr while a test runs.
func NewTestLogger() *slog.Logger {
	if os.Getenv("BARVIZ_TEST_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewLogger(Config{Level: slog.LevelDebug, Output: os.Stderr})
}
