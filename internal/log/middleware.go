package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}

// StructuredLogger emits the recurring HTTP and domain log lines with
// consistent field names.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs at warn for 4xx and error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, "", "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogTransaction(ctx context.Context, op string, userID, id int64, txType string, amountCents int64, category string) {
	fields := NewFields().
		WithOperation(op).
		WithUser(userID).
		WithTransaction(id, txType, amountCents, category)

	sl.logger.InfoContext(ctx, "Transaction "+op, fields.ToSlice()...)
}

func (sl *StructuredLogger) LogAuth(ctx context.Context, op string, userID int64, err error) {
	fields := NewFields().
		WithOperation(op).
		WithUser(userID).
		WithSuccess(err == nil).
		WithError(err)

	if err != nil {
		sl.logger.WarnContext(ctx, "Authentication failed", fields.ToSlice()...)
		return
	}
	sl.logger.InfoContext(ctx, "Authentication succeeded", fields.ToSlice()...)
}
