package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type of request-context keys set by this package.
type ContextKey string

// TraceIDKey is the key for the trace ID in the request context.
const TraceIDKey ContextKey = "traceID"

// TraceIDHeader carries the trace ID on requests and responses.
const TraceIDHeader = "X-Trace-ID"

// SetTraceID adds a trace ID to the context. A valid UUID supplied by the
// caller is kept; anything else is replaced with a fresh random UUID.
func SetTraceID(ctx context.Context, incoming string) context.Context {
	traceID := uuid.NewString()
	if id, err := uuid.Parse(incoming); err == nil {
		traceID = id.String()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
