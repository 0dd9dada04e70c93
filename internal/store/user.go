package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// UserStore maps identity-provider subjects to internal user rows.
type UserStore interface {
	// EnsureByExternalID returns the user for externalID, creating it on first sight.
	// Concurrent first requests for the same subject resolve to the same row.
	EnsureByExternalID(ctx context.Context, externalID, email string) (*domain.User, error)

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByExternalID retrieves a user by identity-provider subject without creating one.
	// Returns ErrUserNotFound if the subject has never been seen.
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) UserStore
}
