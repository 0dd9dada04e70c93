package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// Default page sizes.
const (
	DefaultDueLimit  = 50
	DefaultListLimit = 100
)

// Result is what a review submission reports back to the learner.
type Result struct {
	IntervalDays int                `json:"interval_days"`
	Status       domain.CardStatus  `json:"status"`
	NextReviewAt time.Time          `json:"next_review_at"`
	Card         *domain.ReviewCard `json:"card"`
}

// CardWithQuestion pairs a card with its question. Question is nil when the
// question has been removed from the bank since the card was created.
type CardWithQuestion struct {
	Card     *domain.ReviewCard `json:"card"`
	Question *domain.Question   `json:"question"`
}

// Service manages a user's spaced-repetition queue.
type Service interface {
	// AddToQueue creates a card for the question that is due immediately.
	//
	// Returns:
	//   - store.ErrQuestionNotFound if the question does not exist
	//   - service.ErrAlreadyExists if the user already has a card for it
	AddToQueue(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)

	// SubmitReview reschedules the card with the given rating. The card row is
	// locked for the read-modify-write so concurrent submissions serialize.
	//
	// Returns:
	//   - store.ErrReviewCardNotFound if the user has no card for the question
	//   - service.ErrInvalidRequest if the rating is not one of the four known values
	SubmitReview(ctx context.Context, userID, questionID uuid.UUID, rating domain.Rating) (*Result, error)

	// DueCards returns cards due now, earliest first, joined with their questions.
	DueCards(ctx context.Context, userID uuid.UUID, limit int) ([]CardWithQuestion, error)

	// ListCards returns the user's cards, optionally filtered by status.
	ListCards(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit int) ([]CardWithQuestion, error)

	// Stats counts the user's cards by status and how many are due now.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.ReviewStats, error)

	// RemoveFromQueue deletes the card. Returns store.ErrReviewCardNotFound if absent.
	RemoveFromQueue(ctx context.Context, userID, questionID uuid.UUID) error

	// ResetCard restores new-card defaults while keeping the card's identity.
	// Returns store.ErrReviewCardNotFound if absent.
	ResetCard(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)
}
