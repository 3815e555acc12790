package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID          uuid.UUID
	ActiveChannelID *uuid.UUID
	Role            enums.StaffRole
	JTI             string
}

// AccessTokenClaims represents the typed JWT issued to clients. The active
// channel scopes every accounting operation the bearer performs.
type AccessTokenClaims struct {
	UserID          uuid.UUID       `json:"user_id"`
	ActiveChannelID *uuid.UUID      `json:"active_channel_id,omitempty"`
	Role            enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
