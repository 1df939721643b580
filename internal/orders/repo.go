package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists the order with its items inside the caller's transaction.
func (r *Repository) Create(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

// FindByID loads an order with its item snapshots.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByStripeSessionID retrieves the order tied to a checkout session.
func (r *Repository) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStore returns a page of the store's orders plus the total count,
// optionally filtered by status.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("store_id = ?", storeID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Order
	if err := base.Session(&gorm.Session{}).
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus sets the order's status column.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// UpdateStatusWithTx sets the status column inside the caller's transaction.
func (r *Repository) UpdateStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error {
	return tx.Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// SetStripeSession attaches a checkout session id to the order.
func (r *Repository) SetStripeSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("stripe_session_id", sessionID).Error
}

// StatusCount is one row of the per-status rollup.
type StatusCount struct {
	Status enums.OrderStatus `gorm:"column:status"`
	Count  int64             `gorm:"column:count"`
}

// CountByStatusSince groups the store's orders created at or after the cutoff
// by status.
func (r *Repository) CountByStatusSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]StatusCount, error) {
	var out []StatusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Group("status").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RevenueSince sums the totals of completed and processing orders created at
// or after the cutoff.
func (r *Repository) RevenueSince(ctx context.Context, storeID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var row struct {
		Revenue decimal.NullDecimal `gorm:"column:revenue"`
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(total) AS revenue").
		Where("store_id = ? AND created_at >= ? AND status IN ?", storeID, since,
			[]enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusCompleted}).
		Find(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Revenue.Valid {
		return decimal.Zero, nil
	}
	return row.Revenue.Decimal, nil
}
