package middleware

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/internal/apikeys"
	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

const apiKeyHeader = "X-Api-Key"

// APIKeyAuth authenticates keyed requests against the resolved tenant's api
// keys. Safe methods need any permission; mutations need write or full. A
// valid key acts downstream as a machine principal pinned to the key's store.
// Every authenticated call is logged to the usage trail after completion.
func APIKeyAuth(svc apikeys.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := ScopeFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant scope missing"))
				return
			}

			rawKey := r.Header.Get(apiKeyHeader)
			if rawKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing api key"))
				return
			}

			key, err := svc.Validate(r.Context(), rawKey, scope.StoreID, requiredPermissions(r.Method)...)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAPIKey(r.Context(), key)
			ctx = WithPrincipal(ctx, authz.ServicePrincipal(key.ID, scope.AgencyID, scope.StoreID))
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if err := svc.LogUsage(ctx, key, r.URL.Path, r.Method, rec.status); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "api_key_id", key.ID.String()), "api usage log failed")
			}
		})
	}
}

func requiredPermissions(method string) []enums.ApiKeyPermission {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []enums.ApiKeyPermission{
			enums.ApiKeyPermissionRead,
			enums.ApiKeyPermissionWrite,
			enums.ApiKeyPermissionFull,
		}
	default:
		return []enums.ApiKeyPermission{
			enums.ApiKeyPermissionWrite,
			enums.ApiKeyPermissionFull,
		}
	}
}
