package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a record for filtering (order_fetch_failed, audio_playback_failed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldOrderID is the structured logging key for order identifiers.
	FieldOrderID = "order_id"
	// FieldBatchSize counts orders handed over in one detection batch.
	FieldBatchSize = "batch_size"
	// FieldCorrelationID carries an API request identifier.
	FieldCorrelationID = "correlation_id"
	// FieldSessionID identifies one daemon run.
	FieldSessionID = "session_id"
)

type correlationKey struct{}

// WithCorrelationID stores a request identifier on ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the identifier stored by WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with fields carried on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := CorrelationIDFromContext(ctx); ok {
		return logger.With(String(FieldCorrelationID, id))
	}
	return logger
}
