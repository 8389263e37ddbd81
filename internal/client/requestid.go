package client

import "context"

type requestIDKey struct{}

// ContextWithRequestID pins the X-Request-Id of the next call, so callers can
// correlate the submission with what they store or publish afterwards.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
