package middleware

import (
	"context"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
	ctxScope     contextKey = "store_scope"
	ctxAPIKey    contextKey = "api_key"
)

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	if ctx == nil {
		return authz.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(authz.Principal)
	return p, ok
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// AccessIDFromContext returns the JWT's session identifier (jti).
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithAccessID injects the session identifier into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// ScopeFromContext returns the resolved tenant scope, if any.
func ScopeFromContext(ctx context.Context) (tenancy.StoreContext, bool) {
	if ctx == nil {
		return tenancy.StoreContext{}, false
	}
	scope, ok := ctx.Value(ctxScope).(tenancy.StoreContext)
	return scope, ok
}

// WithScope injects the resolved tenant scope into the context.
func WithScope(ctx context.Context, scope tenancy.StoreContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxScope, scope)
}

// APIKeyFromContext returns the storefront api key that authenticated the
// request, if any.
func APIKeyFromContext(ctx context.Context) (*models.ApiKey, bool) {
	if ctx == nil {
		return nil, false
	}
	key, ok := ctx.Value(ctxAPIKey).(*models.ApiKey)
	return key, ok
}

// WithAPIKey injects the authenticated api key into the context.
func WithAPIKey(ctx context.Context, key *models.ApiKey) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAPIKey, key)
}
