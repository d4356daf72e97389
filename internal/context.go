package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/servicebook/internal/access"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	ID       int64
	Username string
	IsStaff  bool
	Groups   []string
	Role     access.Role
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// PrincipalFromContext returns the caller, or false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

// RoleFromContext is RoleUnknown for anonymous callers.
func RoleFromContext(ctx context.Context) access.Role {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.Role
	}
	return access.RoleUnknown
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
