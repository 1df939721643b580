package agencies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type agencyRepository interface {
	Create(ctx context.Context, dto CreateAgencyDTO) (*models.Agency, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	FindByEmail(ctx context.Context, email string) (*models.Agency, error)
	FindByName(ctx context.Context, name string) (*models.Agency, error)
	FindBySlug(ctx context.Context, s string) (*models.Agency, error)
	List(ctx context.Context, offset, limit int) ([]models.Agency, int64, error)
	Update(ctx context.Context, agency *models.Agency) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes agency management for the platform surface. Every operation
// is super-admin only.
type Service interface {
	List(ctx context.Context, principal authz.Principal, params pagination.Params) ([]AgencyDTO, types.Pagination, error)
	GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*AgencyDTO, error)
	Create(ctx context.Context, principal authz.Principal, input CreateAgencyInput) (*AgencyDTO, error)
	Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateAgencyInput) (*AgencyDTO, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
}

type service struct {
	repo agencyRepository
}

// NewService builds an agency service with the provided repository.
func NewService(repo agencyRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agency repository required")
	}
	return &service{repo: repo}, nil
}

// CreateAgencyInput captures creation-time fields.
type CreateAgencyInput struct {
	Name  string
	Email string
	Phone *string
}

// UpdateAgencyInput captures the allowed agency fields for mutation.
type UpdateAgencyInput struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *enums.AgencyStatus
}

func (s *service) List(ctx context.Context, principal authz.Principal, params pagination.Params) ([]AgencyDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionPlatform, authz.Resource{}); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.repo.List(ctx, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agencies")
	}

	out := make([]AgencyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, principal authz.Principal, id uuid.UUID) (*AgencyDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: id}); err != nil {
		return nil, err
	}

	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agency not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agency")
	}
	return FromModel(agency), nil
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateAgencyInput) (*AgencyDTO, error) {
	if err := authz.Decide(principal, authz.ActionPlatform, authz.Resource{}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agency name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}

	if err := s.checkUnique(ctx, name, email); err != nil {
		return nil, err
	}

	agency, err := s.repo.Create(ctx, CreateAgencyDTO{Name: name, Email: email, Phone: input.Phone})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "agency already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create agency")
	}
	return FromModel(agency), nil
}

func (s *service) Update(ctx context.Context, principal authz.Principal, id uuid.UUID, input UpdateAgencyInput) (*AgencyDTO, error) {
	if err := authz.Decide(principal, authz.ActionPlatform, authz.Resource{AgencyID: id}); err != nil {
		return nil, err
	}

	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agency not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agency")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "agency name is required")
		}
		agency.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		agency.Email = email
	}
	if input.Phone != nil {
		phone := *input.Phone
		agency.Phone = &phone
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid agency status")
		}
		agency.Status = *input.Status
	}

	if err := s.repo.Update(ctx, agency); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update agency")
	}
	return FromModel(agency), nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	if err := authz.Decide(principal, authz.ActionPlatform, authz.Resource{AgencyID: id}); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agency not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agency")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete agency")
	}
	return nil
}

func (s *service) checkUnique(ctx context.Context, name, email string) error {
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "agency name already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check agency name")
	}

	// Distinct names can derive the same routing slug.
	if _, err := s.repo.FindBySlug(ctx, slug.Make(name)); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "agency subdomain already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check agency slug")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "agency email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check agency email")
	}
	return nil
}
