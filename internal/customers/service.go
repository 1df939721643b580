package customers

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
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type customerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, search string, offset, limit int) ([]models.Customer, int64, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes customer management inside a resolved store scope.
type Service interface {
	List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, search string, params pagination.Params) ([]CustomerDTO, types.Pagination, error)
	GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*CustomerDTO, error)
	Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error
}

type service struct {
	repo customerRepository
}

// NewService builds a customer service with the provided repository.
func NewService(repo customerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

// UpdateCustomerInput captures the allowed customer fields for mutation.
// Email is immutable; it identifies the customer within the store.
type UpdateCustomerInput struct {
	Name    *string
	Phone   *string
	Address *string
}

func storeResource(scope tenancy.StoreContext) authz.Resource {
	storeID := scope.StoreID
	return authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}
}

func (s *service) List(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, search string, params pagination.Params) ([]CustomerDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.repo.ListByStore(ctx, scope.StoreID, strings.TrimSpace(search), params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) (*CustomerDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, storeResource(scope)); err != nil {
		return nil, err
	}

	customer, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return FromModel(customer), nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return nil, err
	}

	customer, err := s.loadScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
		}
		customer.Name = name
	}
	if input.Phone != nil {
		phone := *input.Phone
		customer.Phone = &phone
	}
	if input.Address != nil {
		address := *input.Address
		customer.Address = &address
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return FromModel(customer), nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, id uuid.UUID) error {
	if err := authz.Decide(principal, authz.ActionWrite, storeResource(scope)); err != nil {
		return err
	}

	if _, err := s.loadScoped(ctx, scope, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}

// loadScoped returns not-found for customers that belong to another store.
func (s *service) loadScoped(ctx context.Context, scope tenancy.StoreContext, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.StoreID != scope.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}
