package subdomains

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles subdomain binding persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to subdomain operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new subdomain binding.
func (r *Repository) Create(ctx context.Context, binding *models.Subdomain) error {
	return r.db.WithContext(ctx).Create(binding).Error
}

// FindByID loads a binding by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subdomain, error) {
	var binding models.Subdomain
	if err := r.db.WithContext(ctx).First(&binding, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

// FindByLabel retrieves the binding for a host label regardless of state.
func (r *Repository) FindByLabel(ctx context.Context, label string) (*models.Subdomain, error) {
	var binding models.Subdomain
	if err := r.db.WithContext(ctx).Where("label = ?", label).First(&binding).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

// FindActiveByLabel retrieves the active binding for a host label.
func (r *Repository) FindActiveByLabel(ctx context.Context, label string) (*models.Subdomain, error) {
	var binding models.Subdomain
	if err := r.db.WithContext(ctx).
		Where("label = ? AND is_active = ?", label, true).
		First(&binding).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

// ListByAgency returns every binding owned by the agency.
func (r *Repository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Subdomain, error) {
	var out []models.Subdomain
	if err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStore returns every binding pointing at the store.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Subdomain, error) {
	var out []models.Subdomain
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the binding.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Subdomain{}, "id = ?", id).Error
}
