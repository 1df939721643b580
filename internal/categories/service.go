package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

type categoryRepository interface {
	Create(ctx context.Context, dto CreateCategoryDTO) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByStoreSlug(ctx context.Context, storeID uuid.UUID, s string) (*models.Category, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes category management inside a resolved store scope.
type Service interface {
	List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext) ([]CategoryDTO, error)
	Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateCategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error
}

type service struct {
	repo categoryRepository
}

// NewService builds a category service with the provided repository.
func NewService(repo categoryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

// CreateCategoryInput captures creation-time fields.
type CreateCategoryInput struct {
	Name        string
	Description *string
}

// UpdateCategoryInput captures the allowed category fields for mutation.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

func storeResource(scope tenancy.StoreContext) authz.Resource {
	storeID := scope.StoreID
	return authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}
}

func (s *service) List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext) ([]CategoryDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByStore(ctx, scope.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, input CreateCategoryInput) (*CategoryDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	candidate := slug.Make(name)
	if candidate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	if err := s.checkSlugFree(ctx, scope.StoreID, candidate); err != nil {
		return nil, err
	}

	category, err := s.repo.Create(ctx, CreateCategoryDTO{
		StoreID:     scope.StoreID,
		Name:        name,
		Description: input.Description,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return FromModel(category), nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}

	category, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		candidate := slug.Make(name)
		if candidate == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
		}
		if candidate != category.Slug {
			if err := s.checkSlugFree(ctx, scope.StoreID, candidate); err != nil {
				return nil, err
			}
			category.Slug = candidate
		}
		category.Name = name
	}
	if input.Description != nil {
		description := *input.Description
		category.Description = &description
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return FromModel(category), nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return err
	}

	if _, err := s.loadScoped(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

// loadScoped returns not-found for categories that exist in another store so
// the caller cannot probe across tenants.
func (s *service) loadScoped(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category.StoreID != scope.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return category, nil
}

func (s *service) checkSlugFree(ctx context.Context, storeID uuid.UUID, candidate string) error {
	if _, err := s.repo.FindByStoreSlug(ctx, storeID, candidate); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "category slug already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category slug")
	}
	return nil
}
