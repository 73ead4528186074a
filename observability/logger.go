package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger instance
var Logger *slog.Logger

// InitLogger initializes the global logger at info level.
// Production uses JSON, development uses text.
func InitLogger(production bool) {
	InitLoggerWithLevel(production, slog.LevelInfo)
}

// InitLoggerWithLevel initializes the logger with a specific log level.
// Output goes to stderr so CLI results on stdout stay machine readable.
func InitLoggerWithLevel(production bool, level slog.Level) {
	Logger = newLogger(os.Stderr, production, level)
	slog.SetDefault(Logger)
}

func newLogger(w io.Writer, production bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func logger() *slog.Logger {
	if Logger == nil {
		InitLogger(false)
	}
	return Logger
}

type requestIDKey struct{}

// ContextWithRequestID stores a request id for WithContext
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithContext returns a logger carrying the request id found in ctx, if any
func WithContext(ctx context.Context) *slog.Logger {
	l := logger()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return l.With("request_id", id)
	}
	return l
}

// Info logs an info message
func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Fatal logs an error message and exits
func Fatal(msg string, args ...any) {
	logger().Error(msg, args...)
	os.Exit(1)
}

// WithSymbol returns a logger with symbol field
func WithSymbol(symbol string) *slog.Logger {
	return logger().With("symbol", symbol)
}

// WithTemplate returns a logger with the scoring template field
func WithTemplate(template string) *slog.Logger {
	return logger().With("template", template)
}

// WithService returns a logger tagged with an upstream service name
func WithService(service string) *slog.Logger {
	return logger().With("service", service)
}

// WithError returns a logger with error field
func WithError(err error) *slog.Logger {
	return logger().With("error", err)
}
