package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vendalink/affiliates-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	StoreID     *uuid.UUID
	AffiliateID *uuid.UUID
	Role        enums.ActorRole
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. StoreID
// scopes merchant tokens, AffiliateID scopes affiliate tokens, and admin
// tokens carry neither.
type AccessTokenClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	StoreID     *uuid.UUID      `json:"store_id,omitempty"`
	AffiliateID *uuid.UUID      `json:"affiliate_id,omitempty"`
	Role        enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
