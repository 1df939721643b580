package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnalyticsEvent is a per-store, per-day rollup row. Writes upsert on the
// (store_id, date) pair.
type AnalyticsEvent struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_analytics_store_date"`
	Date      time.Time       `gorm:"column:date;type:date;not null;uniqueIndex:idx_analytics_store_date"`
	PageViews int             `gorm:"column:page_views;not null;default:0"`
	Sales     int             `gorm:"column:sales;not null;default:0"`
	Revenue   decimal.Decimal `gorm:"column:revenue;type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
