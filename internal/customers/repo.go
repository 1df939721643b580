package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles customer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to customer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a customer by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByStoreEmail retrieves the customer with the given email inside a store.
func (r *Repository) FindByStoreEmail(ctx context.Context, storeID uuid.UUID, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND email = ?", storeID, email).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindOrCreate returns the store's customer with the given email, creating
// the row on first purchase. Runs inside the caller's transaction.
func (r *Repository) FindOrCreate(tx *gorm.DB, storeID uuid.UUID, email, name string) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Where("store_id = ? AND email = ?", storeID, email).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = models.Customer{StoreID: storeID, Email: email, Name: name}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListByStore returns a page of the store's customers plus the total count.
// Search matches name or email.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, search string, offset, limit int) ([]models.Customer, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Customer{}).Where("store_id = ?", storeID)
	if search != "" {
		pattern := "%" + search + "%"
		base = base.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Customer
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists the mutated customer.
func (r *Repository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// Delete removes the customer row. Orders keep their snapshot columns.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id).Error
}

// CountByStore returns the number of customers in the store.
func (r *Repository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("store_id = ?", storeID).
		Count(&total).Error
	return total, err
}
