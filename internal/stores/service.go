package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, s string) (*models.Store, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID, offset, limit int) ([]models.Store, int64, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes store management scoped to the caller's agency.
type Service interface {
	List(ctx context.Context, principal authz.Principal, agencyID uuid.UUID, params pagination.Params) ([]StoreDTO, types.Pagination, error)
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*StoreDTO, error)
	Create(ctx context.Context, principal authz.Principal, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// CreateStoreInput captures creation-time fields. Slug, when set, is used as
// given; otherwise it is derived from the name.
type CreateStoreInput struct {
	AgencyID    uuid.UUID
	Name        string
	Slug        *string
	Description *string
	Currency    string
}

// UpdateStoreInput captures the allowed store fields for mutation. A name
// change regenerates the slug.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Currency    *string
	IsActive    *bool
}

func (s *service) List(ctx context.Context, principal authz.Principal, agencyID uuid.UUID, params pagination.Params) ([]StoreDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: agencyID}); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.repo.ListByAgency(ctx, agencyID, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}

	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: store.AgencyID, StoreID: &store.ID}); err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateStoreInput) (*StoreDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, authz.Resource{AgencyID: input.AgencyID}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	candidate := slug.Make(name)
	if input.Slug != nil {
		candidate = strings.TrimSpace(*input.Slug)
		if !slug.IsValid(candidate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
		}
	}
	if candidate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name must contain letters or digits")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency != "" && len(currency) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter code")
	}

	if err := s.checkSlugFree(ctx, candidate); err != nil {
		return nil, err
	}

	store, err := s.repo.Create(ctx, CreateStoreDTO{
		AgencyID:    input.AgencyID,
		Name:        name,
		Slug:        candidate,
		Description: input.Description,
		Currency:    currency,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Decide(principal, authz.ActionWrite, authz.Resource{AgencyID: store.AgencyID, StoreID: &store.ID}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
		}
		candidate := slug.Make(name)
		if candidate == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name must contain letters or digits")
		}
		if candidate != store.Slug {
			if err := s.checkSlugFree(ctx, candidate); err != nil {
				return nil, err
			}
			store.Slug = candidate
		}
		store.Name = name
	}
	if input.Description != nil {
		description := *input.Description
		store.Description = &description
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter code")
		}
		store.Currency = currency
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	store, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Decide(principal, authz.ActionWrite, authz.Resource{AgencyID: store.AgencyID, StoreID: &store.ID}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) checkSlugFree(ctx context.Context, candidate string) error {
	if _, err := s.repo.FindBySlug(ctx, candidate); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "store slug already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store slug")
	}
	return nil
}
