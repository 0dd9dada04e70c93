package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating is the learner's self-assessed recall quality for one review.
type Rating string

// Possible rating values, ordered from worst to best recall.
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// CardStatus is the learning phase of a review card.
type CardStatus string

// Possible card status values.
const (
	CardStatusNew        CardStatus = "new"
	CardStatusLearning   CardStatus = "learning"
	CardStatusReview     CardStatus = "review"
	CardStatusRelearning CardStatus = "relearning"
)

// Valid reports whether s is a known card status.
func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusNew, CardStatusLearning, CardStatusReview, CardStatusRelearning:
		return true
	default:
		return false
	}
}

// Scheduling defaults for a card that has never been reviewed.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
)

// Review card validation errors.
var (
	ErrReviewCardUserIDEmpty     = errors.New("review card user ID cannot be empty")
	ErrReviewCardQuestionIDEmpty = errors.New("review card question ID cannot be empty")
	ErrInvalidInterval           = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor         = errors.New("ease factor must be within [1.3, 2.5]")
	ErrInvalidRepetitions        = errors.New("repetitions must be greater than or equal to 0")
	ErrInvalidCardStatus         = errors.New("invalid card status")
	ErrInvalidRating             = errors.New("invalid rating")
)

// ReviewCard is one question in a user's spaced-repetition queue. A user has at
// most one card per question.
type ReviewCard struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	QuestionID     uuid.UUID  `json:"question_id"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	IntervalDays   int        `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	Status         CardStatus `json:"status"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewReviewCard creates a card that is due immediately.
func NewReviewCard(userID, questionID uuid.UUID, now time.Time) (*ReviewCard, error) {
	now = now.UTC()
	card := &ReviewCard{
		ID:         uuid.New(),
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  now,
	}
	card.Reset(now)

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Reset clears the schedule while keeping the card's identity.
func (c *ReviewCard) Reset(now time.Time) {
	now = now.UTC()
	c.NextReviewAt = now
	c.IntervalDays = 0
	c.EaseFactor = DefaultEaseFactor
	c.Repetitions = 0
	c.Status = CardStatusNew
	c.LastReviewedAt = nil
	c.UpdatedAt = now
}

// IsDue reports whether the card should be reviewed at now.
func (c *ReviewCard) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// Validate checks if the ReviewCard has valid data.
func (c *ReviewCard) Validate() error {
	if c.UserID == uuid.Nil {
		return ErrReviewCardUserIDEmpty
	}
	if c.QuestionID == uuid.Nil {
		return ErrReviewCardQuestionIDEmpty
	}
	if c.IntervalDays < 0 {
		return ErrInvalidInterval
	}
	if c.EaseFactor < MinEaseFactor || c.EaseFactor > MaxEaseFactor {
		return ErrInvalidEaseFactor
	}
	if c.Repetitions < 0 {
		return ErrInvalidRepetitions
	}
	if !c.Status.Valid() {
		return ErrInvalidCardStatus
	}
	return nil
}

// ReviewStats summarises a user's queue.
type ReviewStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Relearning int `json:"relearning"`
	DueToday   int `json:"due_today"`
}
