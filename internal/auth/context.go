// ABOUTME: Request context carrying the authenticated principal
// ABOUTME: Provides WithPrincipal/PrincipalFrom for propagating identity to handlers

package auth

import (
	"context"
)

// principalKey is the key type for storing the Principal in context.Context.
type principalKey struct{}

// WithPrincipal returns a new context with the principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom retrieves the principal from the context, returning nil if not present.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// MustPrincipal retrieves the principal from the context, panicking if not present.
// Only use it behind HTTPAuthMiddleware.
func MustPrincipal(ctx context.Context) *Principal {
	p := PrincipalFrom(ctx)
	if p == nil {
		panic("auth: Principal not found in context")
	}
	return p
}
