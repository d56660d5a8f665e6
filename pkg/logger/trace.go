package logger

import (
	"context"

	"github.com/google/uuid"
)

const traceKey = "trace_id"

type traceIDKey struct{}

// WithTraceID returns a context carrying the given trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// EnsureTraceID returns the context unchanged if it already carries a
// trace id, otherwise attaches a newly generated one.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := getTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithTraceID(ctx, id), id
}

// getTraceID extracts the trace id from context.
func getTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
