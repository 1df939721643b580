package models

import (
	"time"

	"github.com/google/uuid"
)

// Subdomain binds a globally unique host label to a store.
type Subdomain struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Label     string    `gorm:"column:label;not null;uniqueIndex"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	AgencyID  uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
