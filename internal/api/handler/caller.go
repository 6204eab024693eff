// internal/api/handler/caller.go
package handler

import (
	"context"

	"bankcards/internal/domain"
)

type callerKey struct{}

// WithCaller stores the authenticated caller in ctx.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}
