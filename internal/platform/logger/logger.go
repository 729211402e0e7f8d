// Package logger provides structured logging functionality for the application.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/examgen/examgen-api/internal/config"
)

type contextKey struct{}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger on stdout
// with the appropriate log level and sets it as the default logger.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	return SetupWithWriter(cfg, os.Stdout)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(cfg config.ServerConfig, w io.Writer) (*slog.Logger, error) {
	level, ok := ParseLevel(cfg.LogLevel)
	if !ok {
		// Create a temporary logger to output the warning
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	// Lets packages that only have slog.Default() share the configuration.
	slog.SetDefault(logger)

	return logger, nil
}

// ParseLevel maps a case-insensitive level name to a slog.Level.
// Unknown names yield slog.LevelInfo and false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, if any.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(contextKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// FromContextOrDefault returns the request-scoped logger or def when the
// context carries none.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
