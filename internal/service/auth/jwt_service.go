// Package auth validates the access tokens issued by the authentication
// service. The task service never sees passwords; it only trusts the uid
// claim of a correctly signed, unexpired access token.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type accepted on API requests.
const TokenTypeAccess = "access"

// JWTService issues and validates access tokens.
type JWTService interface {
	// GenerateToken signs an access token for userID. Used by tooling and tests;
	// in production tokens come from the authentication service.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks signature, lifetime and token type and returns the claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the token fields the service relies on.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	TokenType string    `json:"type,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
