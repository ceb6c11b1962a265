package context

import "context"

type requestIDKey struct{}
type providerIDKey struct{}

// WithRequestID stores the request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithProviderID tags the context with the provider a bill is being built for.
func WithProviderID(ctx context.Context, providerID string) context.Context {
	if providerID == "" {
		return ctx
	}
	return context.WithValue(ctx, providerIDKey{}, providerID)
}

func ProviderIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(providerIDKey{}).(string)
	return value
}
