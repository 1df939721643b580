package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// ApiKey stores only the sha256 hash of an issued key plus a display mask.
// The plaintext key is shown once at creation and never persisted.
type ApiKey struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index"`
	Name       string                 `gorm:"column:name;not null"`
	KeyHash    string                 `gorm:"column:key_hash;not null;uniqueIndex"`
	KeyMask    string                 `gorm:"column:key_mask;not null"`
	Permission enums.ApiKeyPermission `gorm:"column:permission;type:text;not null"`
	Status     enums.ApiKeyStatus     `gorm:"column:status;type:text;not null;default:'active'"`
	LastUsedAt *time.Time             `gorm:"column:last_used_at"`
	ExpiresAt  *time.Time             `gorm:"column:expires_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ApiUsage logs one row per authenticated storefront API call.
type ApiUsage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApiKeyID   uuid.UUID `gorm:"column:api_key_id;type:uuid;not null;index"`
	StoreID    uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	Endpoint   string    `gorm:"column:endpoint;not null"`
	Method     string    `gorm:"column:method;not null"`
	StatusCode int       `gorm:"column:status_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
