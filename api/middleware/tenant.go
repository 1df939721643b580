package middleware

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

// StoreScope resolves the {storeId} URL parameter into a tenant scope for the
// management API. Access is decided downstream; a caller outside the store's
// agency still gets the uniform not-found from the service layer.
func StoreScope(resolver *tenancy.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID, err := validators.ParseUUIDParam(r, "storeId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			scope, err := resolver.ResolveStore(r.Context(), storeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithScope(r.Context(), *scope)
			if logg != nil {
				ctx = logg.WithStoreID(ctx, scope.StoreID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Tenant resolves the request host into a storefront tenant scope via the
// subdomain binding table.
func Tenant(resolver *tenancy.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := resolver.ResolveHost(r.Context(), r.Host)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithScope(r.Context(), *scope)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"store_id":     scope.StoreID.String(),
					"tenant_label": scope.Label,
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
