package auth

import (
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Name   string
	Role   enums.StaffRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to field devices.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Name   string          `json:"name,omitempty"`
	Role   enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
