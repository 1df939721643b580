package agencies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles agency persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to agency operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new agency row.
func (r *Repository) Create(ctx context.Context, dto CreateAgencyDTO) (*models.Agency, error) {
	agency := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(agency).Error; err != nil {
		return nil, err
	}
	return agency, nil
}

// CreateWithTx persists a new agency row inside an existing transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, dto CreateAgencyDTO) (*models.Agency, error) {
	agency := dto.ToModel()
	if err := tx.Create(agency).Error; err != nil {
		return nil, err
	}
	return agency, nil
}

// FindByID loads an agency by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	var agency models.Agency
	if err := r.db.WithContext(ctx).First(&agency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

// FindByEmail retrieves the agency registered under the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Agency, error) {
	var agency models.Agency
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&agency).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

// FindByName retrieves the agency with the provided display name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Agency, error) {
	var agency models.Agency
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&agency).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

// FindBySlug retrieves the agency with the provided routing slug.
func (r *Repository) FindBySlug(ctx context.Context, s string) (*models.Agency, error) {
	var agency models.Agency
	if err := r.db.WithContext(ctx).Where("slug = ?", s).First(&agency).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

// List returns a page of agencies plus the total row count.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Agency, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Agency{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Agency
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists the mutated agency.
func (r *Repository) Update(ctx context.Context, agency *models.Agency) error {
	return r.db.WithContext(ctx).Save(agency).Error
}

// Delete removes the agency and, via FK cascades, its stores and users.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Agency{}, "id = ?", id).Error
}
