package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
)

// CustomerDTO is the transport shape for store buyers.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps the persisted customer into a DTO.
func FromModel(m *models.Customer) *CustomerDTO {
	if m == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Email:     m.Email,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
