package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, or wraps slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware creates HTTP middleware that adds a request-scoped logger to
// the request context. extractRequestID may be nil.
func Middleware(logger *Logger, extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.WithComponent(ComponentHTTP)
			if extractRequestID != nil {
				if id := extractRequestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// StructuredLogger provides domain-specific structured logging helpers
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogAlertCreated logs a persisted budget alert
func (sl *StructuredLogger) LogAlertCreated(ctx context.Context, userID, alertID, alertType string, spentCents, budgetCents int64, percentage float64) {
	fields := NewFields().
		WithUser(userID).
		WithBudget(spentCents, budgetCents, percentage).
		WithOperation(OpCheckBudget).
		WithComponent(ComponentScheduler).
		ToSlice()
	fields = append(fields, FieldRecordID, alertID, FieldAlertType, alertType)

	sl.logger.Logger.InfoContext(ctx, "Budget alert created", fields...)
}

// LogDigestCreated logs a persisted weekly digest
func (sl *StructuredLogger) LogDigestCreated(ctx context.Context, userID, digestID string, totalCents int64, weekStart, weekEnd string) {
	fields := NewFields().
		WithUser(userID).
		WithOperation(OpWeeklyDigest).
		WithComponent(ComponentScheduler).
		ToSlice()
	fields = append(fields,
		FieldRecordID, digestID,
		FieldAmountCents, totalCents,
		FieldWeekStart, weekStart,
		FieldWeekEnd, weekEnd)

	sl.logger.Logger.InfoContext(ctx, "Weekly digest created", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
