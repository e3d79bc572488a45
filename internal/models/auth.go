package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials. Identifier is an admin username, a student code or a student email.
type LoginRequest struct {
	Identifier string `json:"username" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   int64    `json:"uid"`
	Role     UserRole `json:"role"`
	Username string   `json:"username"`
	jwt.RegisteredClaims
}

// Actor converts the claims into a request-scoped identity.
func (c *JWTClaims) Actor(origin string) Actor {
	if c == nil {
		return Actor{Origin: origin}
	}
	return Actor{ID: c.UserID, Role: c.Role, Origin: origin}
}
