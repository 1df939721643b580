package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug retrieves the store with the provided routing slug.
func (r *Repository) FindBySlug(ctx context.Context, s string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", s).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ListByAgency returns a page of the agency's stores plus the total count.
func (r *Repository) ListByAgency(ctx context.Context, agencyID uuid.UUID, offset, limit int) ([]models.Store, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("agency_id = ?", agencyID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Store
	if err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists the mutated store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// Delete removes the store and, via FK cascades, its catalog and orders.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id).Error
}

// CountByAgency returns the number of stores owned by the agency.
func (r *Repository) CountByAgency(ctx context.Context, agencyID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("agency_id = ?", agencyID).
		Count(&total).Error
	return total, err
}
