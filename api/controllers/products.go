package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/api/validators"
	"github.com/cobaltcommerce/cobalt-backend/internal/products"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

func productListFilter(r *http.Request) (products.ListFilter, error) {
	filter := products.ListFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return products.ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category_id")
		}
		filter.CategoryID = &id
	}
	return filter, nil
}

// ProductList pages through the store's catalog with optional search,
// category, and active filters.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := productListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, meta, err := svc.List(r.Context(), principal, scope, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, rows, meta)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), principal, scope, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name        string     `json:"name" validate:"required,min=2"`
	Slug        *string    `json:"slug,omitempty"`
	Description *string    `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Price       string     `json:"price" validate:"required"`
	Stock       int        `json:"stock" validate:"gte=0"`
	Images      []string   `json:"images,omitempty" validate:"omitempty,dive,url"`
}

func (req createProductRequest) toInput() (products.CreateProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return products.CreateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
	}
	return products.CreateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       price,
		Stock:       req.Stock,
		Images:      req.Images,
	}, nil
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), principal, scope, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=2"`
	Description   *string    `json:"description,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	ClearCategory bool       `json:"clear_category,omitempty"`
	Price         *string    `json:"price,omitempty"`
	Stock         *int       `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images        []string   `json:"images,omitempty" validate:"omitempty,dive,url"`
	IsActive      *bool      `json:"is_active,omitempty"`
}

func (req updateProductRequest) toInput() (products.UpdateProductInput, error) {
	input := products.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		Stock:         req.Stock,
		Images:        req.Images,
		IsActive:      req.IsActive,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			return products.UpdateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
		}
		input.Price = &price
	}
	return input, nil
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), principal, scope, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		principal, scope, err := storeRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, scope, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
