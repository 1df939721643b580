package apikeys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Repository handles api key and usage persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to api key operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new key record.
func (r *Repository) Create(ctx context.Context, key *models.ApiKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// FindByID retrieves a key by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ApiKey, error) {
	var key models.ApiKey
	if err := r.db.WithContext(ctx).First(&key, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// FindByHash retrieves a key by its sha256 digest.
func (r *Repository) FindByHash(ctx context.Context, hash string) (*models.ApiKey, error) {
	var key models.ApiKey
	if err := r.db.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// ListByStore returns the store's keys, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.ApiKey, error) {
	var out []models.ApiKey
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the key's status column.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ApiKeyStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// TouchLastUsed records when the key last authenticated a request.
func (r *Repository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

// LogUsage appends one usage row for an authenticated call.
func (r *Repository) LogUsage(ctx context.Context, usage *models.ApiUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
