package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows a store's product listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Search     string
}

// Create persists a new product row.
func (r *Repository) Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error) {
	product := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product with its category preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByStoreSlug retrieves the product with the given slug inside a store.
func (r *Repository) FindByStoreSlug(ctx context.Context, storeID uuid.UUID, s string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("store_id = ? AND slug = ?", storeID, s).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore returns a filtered page of the store's products plus the total.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, offset, limit int) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).Where("store_id = ?", storeID)
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		base = base.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		base = base.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Product
	if err := base.Session(&gorm.Session{}).
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists the mutated product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes the product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// DecrementStock atomically reduces stock, failing when not enough remains.
// Returns gorm.ErrRecordNotFound when the guard clause matches no row.
func (r *Repository) DecrementStock(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByStore returns the number of products in the store.
func (r *Repository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("store_id = ?", storeID).
		Count(&total).Error
	return total, err
}
