package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type productRepository interface {
	Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByStoreSlug(ctx context.Context, storeID uuid.UUID, s string) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, offset, limit int) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Service exposes product management inside a resolved store scope.
type Service interface {
	List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, filter ListFilter, params pagination.Params) ([]ProductDTO, types.Pagination, error)
	GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error
}

type service struct {
	repo       productRepository
	categories categoryLookup
}

// NewService builds a product service with the provided repositories.
func NewService(repo productRepository, categories categoryLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo, categories: categories}, nil
}

// CreateProductInput captures creation-time fields. Slug, when set, is used
// as given; otherwise it is derived from the name.
type CreateProductInput struct {
	Name        string
	Slug        *string
	Description *string
	CategoryID  *uuid.UUID
	Price       decimal.Decimal
	Stock       int
	Images      []string
}

// UpdateProductInput captures the allowed product fields for mutation.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	CategoryID    *uuid.UUID
	ClearCategory bool
	Price         *decimal.Decimal
	Stock         *int
	Images        []string
	IsActive      *bool
}

func storeResource(scope tenancy.StoreContext) authz.Resource {
	storeID := scope.StoreID
	return authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}
}

func (s *service) List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, filter ListFilter, params pagination.Params) ([]ProductDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.repo.ListByStore(ctx, scope.StoreID, filter, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*ProductDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, err
	}

	product, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateProductInput) (*ProductDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	candidate := slug.Make(name)
	if input.Slug != nil {
		candidate = strings.TrimSpace(*input.Slug)
		if !slug.IsValid(candidate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
		}
	}
	if candidate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if err := s.validateCategory(ctx, scope, input.CategoryID); err != nil {
		return nil, err
	}

	if err := s.checkSlugFree(ctx, scope.StoreID, candidate); err != nil {
		return nil, err
	}

	product, err := s.repo.Create(ctx, CreateProductDTO{
		StoreID:     scope.StoreID,
		CategoryID:  input.CategoryID,
		Name:        name,
		Slug:        candidate,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Images:      input.Images,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}

	product, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		candidate := slug.Make(name)
		if candidate == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		if candidate != product.Slug {
			if err := s.checkSlugFree(ctx, scope.StoreID, candidate); err != nil {
				return nil, err
			}
			product.Slug = candidate
		}
		product.Name = name
	}
	if input.Description != nil {
		description := *input.Description
		product.Description = &description
	}
	if input.ClearCategory {
		product.CategoryID = nil
		product.Category = nil
	} else if input.CategoryID != nil {
		if err := s.validateCategory(ctx, scope, input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
		product.Category = nil
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Images != nil {
		product.Images = pq.StringArray(append([]string(nil), input.Images...))
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return err
	}

	if _, err := s.loadScoped(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// loadScoped returns not-found for products that live in another store.
func (s *service) loadScoped(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StoreID != scope.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// validateCategory rejects categories belonging to another store.
func (s *service) validateCategory(ctx context.Context, scope tenancy.StoreContext, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.categories.FindByID(ctx, *categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category.StoreID != scope.StoreID {
		return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
	}
	return nil
}

func (s *service) checkSlugFree(ctx context.Context, storeID uuid.UUID, candidate string) error {
	if _, err := s.repo.FindByStoreSlug(ctx, storeID, candidate); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
	}
	return nil
}
