// Package log provides the leveled structured logger used across the repo,
// a thin wrapper over log/slog with a Trace level below Debug.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	// LevelTrace sits below slog's Debug for per-instruction tracing.
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
)

var root atomic.Pointer[slog.Logger]

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelInfo})
	root.Store(slog.New(handler))
}

// SetDefault replaces the process-wide root logger.
func SetDefault(logger *slog.Logger) {
	root.Store(logger)
}

// SetVerbosity rebuilds the root logger with the given minimum level.
func SetVerbosity(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	root.Store(slog.New(handler))
}

// New returns a child logger tagged with a module name.
func New(module string) *slog.Logger {
	return root.Load().With("module", module)
}

func Trace(msg string, args ...any) {
	root.Load().Log(context.Background(), LevelTrace, msg, args...)
}

func Debug(msg string, args ...any) {
	root.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	root.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	root.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	root.Load().Error(msg, args...)
}
