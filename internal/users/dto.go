package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	dbtypes "github.com/cobaltcommerce/cobalt-backend/pkg/db/types"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        enums.UserRole `json:"role"`
	AgencyID    *uuid.UUID     `json:"agency_id,omitempty"`
	StoreIDs    []uuid.UUID    `json:"store_ids"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Role         enums.UserRole
	AgencyID     *uuid.UUID
	StoreIDs     []uuid.UUID
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		AgencyID:    u.AgencyID,
		StoreIDs:    append([]uuid.UUID(nil), []uuid.UUID(u.StoreIDs)...),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	storeIDs := c.StoreIDs
	if storeIDs == nil {
		storeIDs = []uuid.UUID{}
	} else {
		storeIDs = append([]uuid.UUID(nil), storeIDs...)
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Name:         c.Name,
		Role:         c.Role,
		AgencyID:     c.AgencyID,
		StoreIDs:     dbtypes.UUIDArray(storeIDs),
		IsActive:     isActive,
	}
}
