package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// ReviewCardStore defines the interface for review card persistence.
type ReviewCardStore interface {
	// Create saves a new card.
	// Returns ErrReviewCardExists if the user already has a card for the question.
	Create(ctx context.Context, card *domain.ReviewCard) error

	// Get retrieves the user's card for a question.
	// Returns ErrReviewCardNotFound if the card does not exist.
	Get(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)

	// GetForUpdate retrieves the card and locks its row until the transaction ends.
	// It must be called on a store obtained from WithTx.
	GetForUpdate(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)

	// Update persists the schedule fields of an existing card.
	// Returns ErrReviewCardNotFound if the card does not exist.
	Update(ctx context.Context, card *domain.ReviewCard) error

	// Delete removes the user's card for a question.
	// Returns ErrReviewCardNotFound if the card does not exist.
	Delete(ctx context.Context, userID, questionID uuid.UUID) error

	// ListDue returns cards with NextReviewAt <= now, earliest first, capped at limit.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewCard, error)

	// List returns the user's cards, optionally restricted to one status, capped at limit.
	List(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit int) ([]*domain.ReviewCard, error)

	// Stats counts the user's cards by status and due state.
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.ReviewStats, error)

	// WithTx returns a new ReviewCardStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) ReviewCardStore
}
