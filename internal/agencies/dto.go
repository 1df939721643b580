package agencies

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

// AgencyDTO exposes safe tenant data in API responses.
type AgencyDTO struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Email     string             `json:"email"`
	Phone     *string            `json:"phone,omitempty"`
	Status    enums.AgencyStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CreateAgencyDTO holds creation-time data for a new agency.
type CreateAgencyDTO struct {
	Name   string
	Email  string
	Phone  *string
	Status *enums.AgencyStatus
}

// FromModel maps the persisted agency into a DTO.
func FromModel(m *models.Agency) *AgencyDTO {
	if m == nil {
		return nil
	}
	return &AgencyDTO{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		Email:     m.Email,
		Phone:     m.Phone,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateAgencyDTO) ToModel() *models.Agency {
	model := &models.Agency{
		Name:   c.Name,
		Slug:   slug.Make(c.Name),
		Email:  c.Email,
		Phone:  c.Phone,
		Status: enums.AgencyStatusActive,
	}
	if c.Status != nil {
		model.Status = *c.Status
	}
	return model
}
