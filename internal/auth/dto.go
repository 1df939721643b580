package auth

import (
	"github.com/cobaltcommerce/cobalt-backend/internal/agencies"
	"github.com/cobaltcommerce/cobalt-backend/internal/users"
)

// LoginRequest carries the credentials plus the caller IP for rate limiting.
type LoginRequest struct {
	Email    string
	Password string
	IP       string
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest rotates an access/refresh pair.
type RefreshRequest struct {
	AccessToken  string
	RefreshToken string
}

// RefreshResponse carries the rotated pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterAgencyRequest provisions a new agency tenant plus its admin user.
type RegisterAgencyRequest struct {
	AgencyName string
	Email      string
	Password   string
	OwnerName  string
	Phone      *string
	IP         string
}

// RegisterAgencyResponse returns the created tenant and a ready session.
type RegisterAgencyResponse struct {
	Agency       *agencies.AgencyDTO `json:"agency"`
	User         *users.UserDTO      `json:"user"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
}
