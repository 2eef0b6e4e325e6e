package token

import "context"

type contextKey struct{}

// WithValue attaches the token issued during this request so the response
// can render it.
func WithValue(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, contextKey{}, value)
}

// FromContext returns the token issued during this request, if any.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKey{}).(string)
	return v, ok && v != ""
}
