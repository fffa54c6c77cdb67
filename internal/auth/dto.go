package auth

import (
	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/internal/users"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// LoginRequest carries the credentials presented to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the token pair plus the authenticated user.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest carries the expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest contains the payload for onboarding a new account. Seller
// accounts are provisioned with a fresh seller id unless one is supplied.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     enums.UserRole `json:"role" validate:"required"`
	SellerID *uuid.UUID     `json:"seller_id,omitempty"`
}

// RegisterResponse returns the newly created user.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}
