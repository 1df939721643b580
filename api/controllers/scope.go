package controllers

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/middleware"
	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

// storeRequest pulls the authenticated principal and resolved store scope a
// store-scoped management endpoint needs.
func storeRequest(r *http.Request) (authz.Principal, tenancy.StoreContext, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return authz.Principal{}, tenancy.StoreContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing")
	}
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		return authz.Principal{}, tenancy.StoreContext{}, pkgerrors.New(pkgerrors.CodeInternal, "tenant scope missing")
	}
	return principal, scope, nil
}

// tenantScope pulls the storefront tenant scope resolved from the host.
func tenantScope(r *http.Request) (tenancy.StoreContext, error) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		return tenancy.StoreContext{}, pkgerrors.New(pkgerrors.CodeInternal, "tenant scope missing")
	}
	return scope, nil
}
