package context

import (
	"context"
)

// Trace identifies one request across log lines, error bodies and spans.
type Trace struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceKey struct{}

// WithTrace stores t in ctx.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the trace stored in ctx.
func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}
