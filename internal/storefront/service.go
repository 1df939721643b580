// Package storefront serves the public, host-resolved shop surface. It only
// ever exposes active catalog data for the resolved tenant, so no principal
// flows through it.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/categories"
	"github.com/cobaltcommerce/cobalt-backend/internal/products"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type productReader interface {
	ListByStore(ctx context.Context, storeID uuid.UUID, filter products.ListFilter, offset, limit int) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type categoryReader interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
}

// CatalogFilter narrows a public catalog listing.
type CatalogFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

// Service reads the public catalog for a resolved tenant.
type Service interface {
	Catalog(ctx context.Context, scope tenancy.StoreContext, filter CatalogFilter, params pagination.Params) ([]products.ProductDTO, types.Pagination, error)
	Product(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*products.ProductDTO, error)
	Categories(ctx context.Context, scope tenancy.StoreContext) ([]categories.CategoryDTO, error)
}

type service struct {
	products   productReader
	categories categoryReader
}

// NewService builds the public catalog reader.
func NewService(productRepo productReader, categoryRepo categoryReader) (Service, error) {
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{products: productRepo, categories: categoryRepo}, nil
}

func (s *service) Catalog(ctx context.Context, scope tenancy.StoreContext, filter CatalogFilter, params pagination.Params) ([]products.ProductDTO, types.Pagination, error) {
	normalized := params.Normalize()
	listFilter := products.ListFilter{
		CategoryID: filter.CategoryID,
		ActiveOnly: true,
		Search:     strings.TrimSpace(filter.Search),
	}

	rows, total, err := s.products.ListByStore(ctx, scope.StoreID, listFilter, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}

	out := make([]products.ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *products.FromModel(&rows[i]))
	}
	return out, normalized.Meta(total), nil
}

func (s *service) Product(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*products.ProductDTO, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StoreID != scope.StoreID || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return products.FromModel(product), nil
}

func (s *service) Categories(ctx context.Context, scope tenancy.StoreContext) ([]categories.CategoryDTO, error) {
	rows, err := s.categories.ListByStore(ctx, scope.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	out := make([]categories.CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *categories.FromModel(&rows[i]))
	}
	return out, nil
}
