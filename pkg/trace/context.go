package trace

import "context"

type contextKey struct{}

// WithBuilder returns a context carrying the builder for the current
// operation. The host adapter injects it before execution begins so that
// instrumented resolvers can find it.
func WithBuilder(ctx context.Context, b *Builder) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the builder for the current operation, if any.
func FromContext(ctx context.Context) (*Builder, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(contextKey{}).(*Builder)
	return b, ok
}
