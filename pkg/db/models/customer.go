package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a store-scoped buyer record. Email is unique per store, not
// globally.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_customers_store_email"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:idx_customers_store_email"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	Address   *string   `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
