package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionUser is the authenticated user attached to a request.
type SessionUser struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// AdminClaims is the payload of the session cookie.
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthResponse is the result of a successful admin login.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        SessionUser `json:"user"`
}
