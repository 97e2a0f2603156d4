package dto

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims defines the custom claims of the admin session token.
type AdminClaims struct {
	TokenType string `json:"token_type"` // always "admin"
	jwt.RegisteredClaims
}
