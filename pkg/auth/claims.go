package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	Role     enums.UserRole
	AgencyID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email"`
	Role     enums.UserRole `json:"role"`
	AgencyID *uuid.UUID     `json:"agency_id,omitempty"`
	jwt.RegisteredClaims
}
