package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products within a single store. Slug is unique per store.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_categories_store_slug"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:idx_categories_store_slug"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
