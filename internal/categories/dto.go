package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

// CategoryDTO is the transport shape for catalog categories.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	StoreID     uuid.UUID `json:"store_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCategoryDTO holds creation-time data for a new category.
type CreateCategoryDTO struct {
	StoreID     uuid.UUID
	Name        string
	Description *string
}

// FromModel maps the persisted category into a DTO.
func FromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          m.ID,
		StoreID:     m.StoreID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO.
func (c CreateCategoryDTO) ToModel() *models.Category {
	return &models.Category{
		StoreID:     c.StoreID,
		Name:        c.Name,
		Slug:        slug.Make(c.Name),
		Description: c.Description,
	}
}
