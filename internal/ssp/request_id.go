package ssp

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries a per-request correlation ID to the server.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is an unexported key type for storing the request ID in context.
type requestIDKey struct{}

// WithRequestID attaches a request ID to the context. An empty id generates a
// fresh ULID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		id = ulid.Make().String()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID stored by WithRequestID, or a new ULID
// when there is none.
func RequestIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(requestIDKey{}).(string); ok && v != "" {
			return v
		}
	}
	return ulid.Make().String()
}
