package context

import (
	"context"

	"github.com/google/uuid"
)

// Trace identifies one request in logs and error responses.
type Trace struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// NewTrace keeps the ids supplied by the caller and generates the missing ones.
func NewTrace(traceID, requestID string) Trace {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return Trace{TraceID: traceID, RequestID: requestID}
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns the request trace, if any.
func GetTrace(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// RequestID returns the request id or "".
func RequestID(ctx context.Context) string {
	t, _ := GetTrace(ctx)
	return t.RequestID
}
