package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// Agency is the top-level tenant. Its slug doubles as the fallback routing
// label when no store subdomain matches.
type Agency struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string             `gorm:"column:name;not null;uniqueIndex"`
	Slug      string             `gorm:"column:slug;not null;uniqueIndex"`
	Email     string             `gorm:"column:email;not null;uniqueIndex"`
	Phone     *string            `gorm:"column:phone"`
	Status    enums.AgencyStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
