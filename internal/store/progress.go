package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// ProgressStore defines the interface for per-question progress persistence.
type ProgressStore interface {
	// GetForUpdate retrieves the (user, question) row and locks it.
	// Returns ErrProgressNotFound if the row does not exist.
	GetForUpdate(ctx context.Context, userID, questionID uuid.UUID) (*domain.QuestionProgress, error)

	// Upsert inserts the row or replaces the mutable fields of the existing one.
	Upsert(ctx context.Context, progress *domain.QuestionProgress) error

	// Delete removes the (user, question) row.
	// Returns ErrProgressNotFound if the row does not exist.
	Delete(ctx context.Context, userID, questionID uuid.UUID) error

	// StatusByQuestion returns the latest status of every question the user has history on.
	StatusByQuestion(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]domain.ProgressStatus, error)

	// List returns the user's rows, optionally restricted to one status, capped at limit.
	List(ctx context.Context, userID uuid.UUID, status *domain.ProgressStatus, limit int) ([]*domain.QuestionProgress, error)

	// Stats aggregates the user's rows.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.ProgressStats, error)

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) ProgressStore
}
