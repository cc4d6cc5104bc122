package common

import "context"

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// WithRequestID tags a context with the per-document request ID so nested
// stages log under the same correlation key.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID, or "" when untagged.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
