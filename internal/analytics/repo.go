package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// Repository handles the per-store, per-day rollup rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to analytics operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// truncateToDay normalizes a timestamp to its UTC calendar date.
func truncateToDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

// IncrementSales upserts the day row, adding one sale and the order total.
// Runs inside the caller's transaction so a failed order leaves no trace.
func (r *Repository) IncrementSales(tx *gorm.DB, storeID uuid.UUID, at time.Time, revenue decimal.Decimal) error {
	row := models.AnalyticsEvent{
		StoreID: storeID,
		Date:    truncateToDay(at),
		Sales:   1,
		Revenue: revenue,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"sales":      gorm.Expr("analytics_events.sales + 1"),
			"revenue":    gorm.Expr("analytics_events.revenue + ?", revenue),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
}

// IncrementPageViews upserts the day row, adding one page view.
func (r *Repository) IncrementPageViews(ctx context.Context, storeID uuid.UUID, at time.Time) error {
	row := models.AnalyticsEvent{
		StoreID:   storeID,
		Date:      truncateToDay(at),
		PageViews: 1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"page_views": gorm.Expr("analytics_events.page_views + 1"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
}

// Totals aggregates the rollup rows over a date range.
type Totals struct {
	PageViews int64               `gorm:"column:page_views"`
	Sales     int64               `gorm:"column:sales"`
	Revenue   decimal.NullDecimal `gorm:"column:revenue"`
}

// SumSince aggregates the store's rollups from the cutoff date onward.
func (r *Repository) SumSince(ctx context.Context, storeID uuid.UUID, since time.Time) (*Totals, error) {
	var totals Totals
	if err := r.db.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Select("COALESCE(SUM(page_views), 0) AS page_views, COALESCE(SUM(sales), 0) AS sales, SUM(revenue) AS revenue").
		Where("store_id = ? AND date >= ?", storeID, truncateToDay(since)).
		Find(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}

// ListSince returns the store's day rows from the cutoff onward, oldest first.
func (r *Repository) ListSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.AnalyticsEvent, error) {
	var out []models.AnalyticsEvent
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND date >= ?", storeID, truncateToDay(since)).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
