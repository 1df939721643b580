package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is an agency-owned storefront. Slug is globally unique so it can be
// used as a routing label.
type Store struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID    uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	Currency    string    `gorm:"column:currency;not null;default:'USD'"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
