package auth

import "errors"

// Token validation failures. The auth middleware maps every one of them to
// 401 Unauthorized.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	// ErrMissingSubject means the token verified but names no identity
	// provider subject to resolve a user from.
	ErrMissingSubject = errors.New("authentication token has no subject")
)
