package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID     = errors.New("user ID cannot be empty")
	ErrEmptyExternalID = errors.New("user external ID cannot be empty")
)

// User is the local record of an account managed by the external identity
// provider. ExternalID is the provider's subject claim.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser creates a User for the given provider subject.
func NewUser(externalID, email string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:         uuid.New(),
		ExternalID: strings.TrimSpace(externalID),
		Email:      strings.TrimSpace(email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.ExternalID == "" {
		return ErrEmptyExternalID
	}
	return nil
}
