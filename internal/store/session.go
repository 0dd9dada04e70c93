package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// SessionFilter narrows ListByUser.
type SessionFilter struct {
	ExamID        *uuid.UUID
	CompletedOnly bool
	Limit         int
}

// SessionStore defines the interface for assessment session persistence.
// Lookups are scoped by owner; another user's session is reported as not found.
type SessionStore interface {
	// Create saves a new session together with its blank answers.
	Create(ctx context.Context, session *domain.AssessmentSession) error

	// Get retrieves a session owned by userID.
	// Returns ErrSessionNotFound if it does not exist or belongs to another user.
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.AssessmentSession, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, userID, sessionID uuid.UUID) (*domain.AssessmentSession, error)

	// Update persists answers, completion state and results.
	Update(ctx context.Context, session *domain.AssessmentSession) error

	// Delete removes a session owned by userID.
	// Returns ErrSessionNotFound if it does not exist.
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error

	// ListByUser returns the user's sessions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, filter SessionFilter) ([]*domain.AssessmentSession, error)

	// WithTx returns a new SessionStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) SessionStore
}
