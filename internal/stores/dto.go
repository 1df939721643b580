package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

// StoreDTO is the transport shape for storefronts.
type StoreDTO struct {
	ID          uuid.UUID `json:"id"`
	AgencyID    uuid.UUID `json:"agency_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateStoreDTO holds creation-time data for a new store.
type CreateStoreDTO struct {
	AgencyID    uuid.UUID
	Name        string
	Slug        string
	Description *string
	Currency    string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:          m.ID,
		AgencyID:    m.AgencyID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Currency:    m.Currency,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateStoreDTO) ToModel() *models.Store {
	currency := c.Currency
	if currency == "" {
		currency = "USD"
	}
	storeSlug := c.Slug
	if storeSlug == "" {
		storeSlug = slug.Make(c.Name)
	}
	return &models.Store{
		AgencyID:    c.AgencyID,
		Name:        c.Name,
		Slug:        storeSlug,
		Description: c.Description,
		Currency:    currency,
		IsActive:    true,
	}
}
