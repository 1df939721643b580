package controllers

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/internal/analytics"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

// AnalyticsOverview returns the store dashboard rollup for the requested
// period (day, week, month, or year; month when omitted).
func AnalyticsOverview(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period"))
			return
		}

		overview, err := svc.Overview(r.Context(), principal, scope, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}
