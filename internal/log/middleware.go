package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// Middleware stores logger in every request context for FromContext.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or the process default tagged
// as the app component.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

// RequestIDMiddleware tags the context logger with the request ID. It must
// run inside Middleware.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := extractRequestID(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			logger := FromContext(r.Context()).With(FieldRequestID, id)
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the application's domain events with a fixed set
// of fields, so they can be queried the same way everywhere.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogRequestFailed records a handler error. Server-side failures log at
// error level, rejected input at warn.
func (sl *StructuredLogger) LogRequestFailed(ctx context.Context, r *http.Request, status int, err error) {
	level := slog.LevelWarn
	msg := "Request rejected"
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
		msg = "Request failed"
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), "").
		WithStatus(status).
		WithError(err).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// LogChartRendered records a figure that was drawn rather than served
// from cache.
func (sl *StructuredLogger) LogChartRendered(ctx context.Context, kind string, year int, metric, format string, bytes int, durationMs int64) {
	fields := NewFields().
		WithChart(kind, year, metric, format).
		WithOperation(OpRender).
		WithComponent(ComponentChart).
		ToSlice()

	sl.logger.Logger.InfoContext(ctx, "Chart rendered", append(fields, FieldBytes, bytes, FieldDuration, durationMs)...)
}

// LogImportCompleted records a spreadsheet stored by the import worker.
func (sl *StructuredLogger) LogImportCompleted(ctx context.Context, jobID, source string, rows, badDates, badAmounts int) {
	fields := NewFields().
		WithImport(source, rows, badDates, badAmounts).
		WithOperation(OpImport).
		WithComponent(ComponentWorker).
		ToSlice()

	sl.logger.Logger.InfoContext(ctx, "Sales import completed", append(fields, FieldJobID, jobID)...)
}
