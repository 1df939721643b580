package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/api/middleware"
	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/stores"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

// requestAgencyID resolves the agency an agency-scoped request targets.
// Agency users are pinned to their own tenant; super admins select one via
// the agency_id query parameter.
func requestAgencyID(principal authz.Principal, r *http.Request) (uuid.UUID, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("agency_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid agency_id")
		}
		return id, nil
	}
	if principal.AgencyID != nil {
		return *principal.AgencyID, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "agency_id is required")
}

// StoreList pages through the stores under the caller's agency.
func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		agencyID, err := requestAgencyID(principal, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, meta, err := svc.List(r.Context(), principal, agencyID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, rows, meta)
	}
}

func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.GetByID(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}

type createStoreRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Currency    string  `json:"currency" validate:"required,len=3"`
}

func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		agencyID, err := requestAgencyID(principal, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), principal, stores.CreateStoreInput{
			AgencyID:    agencyID,
			Name:        payload.Name,
			Slug:        payload.Slug,
			Description: payload.Description,
			Currency:    payload.Currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

type updateStoreRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Description *string `json:"description,omitempty"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), principal, id, stores.UpdateStoreInput{
			Name:        payload.Name,
			Description: payload.Description,
			Currency:    payload.Currency,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store)
	}
}

func StoreDelete(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
