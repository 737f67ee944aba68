package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	Role          enums.Role
	IsActive      bool
	EmailVerified bool
	JTI           string
}

// AccessTokenClaims represents the typed JWT issued by the auth service.
type AccessTokenClaims struct {
	UserID        uuid.UUID  `json:"user_id"`
	Role          enums.Role `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	jwt.RegisteredClaims
}

// Identity is the authenticated actor a request runs as.
type Identity struct {
	UserID        uuid.UUID
	Role          enums.Role
	IsActive      bool
	EmailVerified bool
}

func (i Identity) IsAdmin() bool {
	return i.Role == enums.RoleAdmin
}

// Identity converts validated claims into the request actor.
func (c *AccessTokenClaims) Identity() Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{
		UserID:        c.UserID,
		Role:          c.Role,
		IsActive:      c.IsActive,
		EmailVerified: c.EmailVerified,
	}
}
