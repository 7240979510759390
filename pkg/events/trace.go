package events

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// WithTraceID returns a context carrying the given trace id. An empty id
// gets a fresh one so downstream emissions always carry a trace.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFrom extracts the trace id from the context, generating one if the
// context carries none.
func TraceIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(traceKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
