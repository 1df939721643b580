package apikeys

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// APIKeyDTO is the masked view of an issued key.
type APIKeyDTO struct {
	ID         uuid.UUID              `json:"id"`
	StoreID    uuid.UUID              `json:"store_id"`
	Name       string                 `json:"name"`
	KeyMask    string                 `json:"key_mask"`
	Permission enums.ApiKeyPermission `json:"permission"`
	Status     enums.ApiKeyStatus     `json:"status"`
	LastUsedAt *time.Time             `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time             `json:"expires_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// CreatedAPIKeyDTO carries the one-time plaintext. Returned only from Create;
// every later read shows the mask.
type CreatedAPIKeyDTO struct {
	APIKeyDTO
	Key string `json:"key"`
}

// FromModel maps a persisted key to its masked view.
func FromModel(key *models.ApiKey) APIKeyDTO {
	return APIKeyDTO{
		ID:         key.ID,
		StoreID:    key.StoreID,
		Name:       key.Name,
		KeyMask:    key.KeyMask,
		Permission: key.Permission,
		Status:     key.Status,
		LastUsedAt: key.LastUsedAt,
		ExpiresAt:  key.ExpiresAt,
		CreatedAt:  key.CreatedAt,
	}
}
