package auth

import (
	"context"
	"time"
)

// JWTService defines operations on the bearer tokens issued by the identity
// provider. The token subject is the provider's user id, not the local one.
type JWTService interface {
	// GenerateToken creates a signed access token for subject. It is used by
	// development tooling; production tokens come from the identity provider.
	GenerateToken(ctx context.Context, subject, email string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation fails
	// (expired, invalid signature, missing subject, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a bearer token.
type Claims struct {
	// Subject is the identity provider's user id.
	Subject string `json:"sub"`

	// Email is optional and only used to seed the local user record.
	Email string `json:"email,omitempty"`

	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
