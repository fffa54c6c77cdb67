package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	SellerID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. SellerID is
// only present for seller accounts.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Role     enums.UserRole `json:"role"`
	SellerID *uuid.UUID     `json:"seller_id,omitempty"`
	jwt.RegisteredClaims
}
