package session

import "context"

type scopeContextKey struct{}

// ContextWithScope stores the browser scope ID in context.
func ContextWithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the browser scope ID from context.
func ScopeFromContext(ctx context.Context) string {
	scope, _ := ctx.Value(scopeContextKey{}).(string)
	return scope
}
