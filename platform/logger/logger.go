// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// EventTagKey is the context key for the hook event being dispatched
	EventTagKey contextKey = "event_tag"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger carrying the request id and event tag found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if tag, ok := ctx.Value(EventTagKey).(string); ok && tag != "" {
		newLogger = newLogger.WithEventTag(tag)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithEventTag returns a logger scoped to a hook event
func (l *Logger) WithEventTag(tag string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("event_tag", tag)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// GatewayCall logs one round trip to the messaging gateway.
func (l *Logger) GatewayCall(method string, status int, elapsed time.Duration, err error) {
	if err != nil {
		l.Warn("gateway_call",
			slog.String("method", method),
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("gateway_call",
		slog.String("method", method),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
	)
}

// DispatchOutcome logs how a hook dispatch attempt ended.
func (l *Logger) DispatchOutcome(tag string, clientID int64, outcome string, sent bool) {
	level := slog.LevelInfo
	if !sent {
		level = slog.LevelDebug
	}
	l.Log(context.Background(), level, "dispatch_outcome",
		slog.String("event_tag", tag),
		slog.Int64("client_id", clientID),
		slog.String("outcome", outcome),
		slog.Bool("sent", sent),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
