// Package logger provides a simple wrapper around slog for structured logging.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu sync.RWMutex

	// Logger is the global logger instance.
	Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Redirect points the global logger at w. The dashboard redirects logs
// to a file so they do not interleave with the rendered screen.
func Redirect(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	Logger = slog.New(slog.NewTextHandler(w, nil))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger
}

// Error logs an error message.
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}
