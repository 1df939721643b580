package controllers

import (
	"net/http"
	"time"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/apikeys"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

func APIKeyList(svc apikeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "api key service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), principal, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

type createAPIKeyRequest struct {
	Name       string     `json:"name" validate:"required,min=2"`
	Permission string     `json:"permission" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// APIKeyCreate mints a storefront key. The plaintext key appears in this
// response only; afterwards the list shows a masked form.
func APIKeyCreate(svc apikeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "api key service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAPIKeyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permission, err := enums.ParseApiKeyPermission(payload.Permission)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission"))
			return
		}

		created, err := svc.Create(r.Context(), principal, scope, apikeys.CreateAPIKeyInput{
			Name:       payload.Name,
			Permission: permission,
			ExpiresAt:  payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func APIKeyRevoke(svc apikeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "api key service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "keyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Revoke(r.Context(), principal, scope, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
