package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a store-scoped catalog entry. Slug is unique per store.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_products_store_slug"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex:idx_products_store_slug"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Images      pq.StringArray  `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
