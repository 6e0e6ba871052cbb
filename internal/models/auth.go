package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest asks for a session token for the given identity.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse returns the issued token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
