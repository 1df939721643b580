package subdomains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

// Labels that would shadow platform surfaces can never be bound to a store.
var reservedLabels = map[string]struct{}{
	"www":   {},
	"api":   {},
	"admin": {},
	"app":   {},
}

type subdomainRepository interface {
	Create(ctx context.Context, binding *models.Subdomain) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subdomain, error)
	FindByLabel(ctx context.Context, label string) (*models.Subdomain, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Subdomain, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Subdomain, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service manages host-label bindings for stores.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input CreateSubdomainInput) (*SubdomainDTO, error)
	ListByAgency(ctx context.Context, principal authz.Principal, agencyID uuid.UUID) ([]SubdomainDTO, error)
	Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error
}

type service struct {
	repo        subdomainRepository
	stores      storeRepository
	platformCfg config.PlatformConfig
}

// NewService builds a subdomain service with the provided repositories.
func NewService(repo subdomainRepository, stores storeRepository, platformCfg config.PlatformConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subdomain repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores, platformCfg: platformCfg}, nil
}

// CreateSubdomainInput captures a new label binding.
type CreateSubdomainInput struct {
	StoreID uuid.UUID
	Label   string
}

// SubdomainDTO is the transport shape for a binding, including its public URL.
type SubdomainDTO struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	StoreID   uuid.UUID `json:"store_id"`
	AgencyID  uuid.UUID `json:"agency_id"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *service) fromModel(m *models.Subdomain) *SubdomainDTO {
	if m == nil {
		return nil
	}
	return &SubdomainDTO{
		ID:        m.ID,
		Label:     m.Label,
		StoreID:   m.StoreID,
		AgencyID:  m.AgencyID,
		URL:       s.platformCfg.SubdomainURL(m.Label),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func (s *service) Create(ctx context.Context, principal authz.Principal, input CreateSubdomainInput) (*SubdomainDTO, error) {
	label := strings.ToLower(strings.TrimSpace(input.Label))
	if !slug.IsValid(label) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subdomain label")
	}
	if _, reserved := reservedLabels[label]; reserved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subdomain label is reserved")
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := authz.Decide(principal, authz.ActionWrite, authz.Resource{AgencyID: store.AgencyID, StoreID: &store.ID}); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByLabel(ctx, label); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subdomain label already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subdomain label")
	}

	binding := &models.Subdomain{
		Label:    label,
		StoreID:  store.ID,
		AgencyID: store.AgencyID,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, binding); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subdomain")
	}
	return s.fromModel(binding), nil
}

func (s *service) ListByAgency(ctx context.Context, principal authz.Principal, agencyID uuid.UUID) ([]SubdomainDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: agencyID}); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subdomains")
	}

	out := make([]SubdomainDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *s.fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	binding, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subdomain not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subdomain")
	}
	if err := authz.Decide(principal, authz.ActionWrite, authz.Resource{AgencyID: binding.AgencyID, StoreID: &binding.StoreID}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subdomain")
	}
	return nil
}
