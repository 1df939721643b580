package controllers

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/middleware"
	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/billing"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

// BillingSubscription returns the agency's current subscription.
func BillingSubscription(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
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

		sub, err := svc.GetSubscription(r.Context(), principal, agencyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}

// BillingPayments pages through the agency's payment history.
func BillingPayments(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
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

		rows, meta, err := svc.ListPayments(r.Context(), principal, agencyID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, rows, meta)
	}
}
