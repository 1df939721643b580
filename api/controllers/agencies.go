package controllers

import (
	"net/http"

	"github.com/cobaltcommerce/cobalt-backend/api/middleware"
	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/agencies"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

// AgencyList pages through all agencies on the platform.
func AgencyList(svc agencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agency service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, meta, err := svc.List(r.Context(), principal, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, rows, meta)
	}
}

func AgencyGet(svc agencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agency service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "agencyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agency, err := svc.GetByID(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, agency)
	}
}

type createAgencyRequest struct {
	Name  string  `json:"name" validate:"required,min=2"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone,omitempty"`
}

func AgencyCreate(svc agencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agency service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		var payload createAgencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agency, err := svc.Create(r.Context(), principal, agencies.CreateAgencyInput{
			Name:  payload.Name,
			Email: payload.Email,
			Phone: payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, agency)
	}
}

type updateAgencyRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone  *string `json:"phone,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (req updateAgencyRequest) toInput() (agencies.UpdateAgencyInput, error) {
	input := agencies.UpdateAgencyInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if req.Status != nil {
		status, err := enums.ParseAgencyStatus(*req.Status)
		if err != nil {
			return agencies.UpdateAgencyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

func AgencyUpdate(svc agencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agency service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "agencyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateAgencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agency, err := svc.Update(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, agency)
	}
}

func AgencyDelete(svc agencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "agency service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "agencyId")
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
