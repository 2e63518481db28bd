package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	claimsKey
)

// WithPrincipal stores the resolved principal for handlers. Services never
// read it from the context; handlers pass it explicitly.
func WithPrincipal(ctx context.Context, p scope.Principal, c *Claims) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, claimsKey, c)
}

func PrincipalFrom(ctx context.Context) (scope.Principal, bool) {
	p, ok := ctx.Value(principalKey).(scope.Principal)
	return p, ok
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
