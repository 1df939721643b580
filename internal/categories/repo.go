package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new category row.
func (r *Repository) Create(ctx context.Context, dto CreateCategoryDTO) (*models.Category, error) {
	category := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindByID loads a category by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByStoreSlug retrieves the category with the given slug inside a store.
func (r *Repository) FindByStoreSlug(ctx context.Context, storeID uuid.UUID, s string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND slug = ?", storeID, s).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListByStore returns the store's categories ordered by name.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the mutated category.
func (r *Repository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete removes the category. Products keep their rows with category_id
// cleared by the FK.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}
