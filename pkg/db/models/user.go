package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/cobaltcommerce/cobalt-backend/pkg/db/types"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// User represents the canonical identity entity. AgencyID is nil only for
// super admins; StoreIDs optionally narrows an agency user to a subset of the
// agency's stores.
type User struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string            `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	Name         string            `gorm:"column:name;not null"`
	Role         enums.UserRole    `gorm:"column:role;type:text;not null"`
	AgencyID     *uuid.UUID        `gorm:"column:agency_id;type:uuid;index"`
	StoreIDs     dbtypes.UUIDArray `gorm:"type:uuid[];column:store_ids;not null;default:ARRAY[]::uuid[]"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time        `gorm:"column:last_login_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
