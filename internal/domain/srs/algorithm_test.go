package srs

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSchedule(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name         string
		interval     int
		ease         float64
		reps         int
		rating       domain.Rating
		wantInterval float64
		wantEase     float64
		wantReps     int
	}{
		{
			name:         "again resets streak and interval",
			interval:     30,
			ease:         2.5,
			reps:         5,
			rating:       domain.RatingAgain,
			wantInterval: 1,
			wantEase:     2.3,
			wantReps:     0,
		},
		{
			name:         "again floors ease",
			interval:     3,
			ease:         1.4,
			reps:         1,
			rating:       domain.RatingAgain,
			wantInterval: 1,
			wantEase:     1.3,
			wantReps:     0,
		},
		{
			name:         "hard grows interval slightly",
			interval:     10,
			ease:         2.5,
			reps:         2,
			rating:       domain.RatingHard,
			wantInterval: 12,
			wantEase:     2.35,
			wantReps:     3,
		},
		{
			name:         "hard on new card keeps zero interval",
			interval:     0,
			ease:         2.5,
			reps:         0,
			rating:       domain.RatingHard,
			wantInterval: 0,
			wantEase:     2.35,
			wantReps:     1,
		},
		{
			name:         "good on first review",
			interval:     0,
			ease:         2.5,
			reps:         0,
			rating:       domain.RatingGood,
			wantInterval: 1,
			wantEase:     2.5,
			wantReps:     1,
		},
		{
			name:         "good on second review",
			interval:     1,
			ease:         2.5,
			reps:         1,
			rating:       domain.RatingGood,
			wantInterval: 6,
			wantEase:     2.5,
			wantReps:     2,
		},
		{
			name:         "good multiplies by ease",
			interval:     6,
			ease:         2.5,
			reps:         2,
			rating:       domain.RatingGood,
			wantInterval: 15,
			wantEase:     2.5,
			wantReps:     3,
		},
		{
			name:         "easy on first review",
			interval:     0,
			ease:         2.5,
			reps:         0,
			rating:       domain.RatingEasy,
			wantInterval: 4,
			wantEase:     2.5,
			wantReps:     1,
		},
		{
			name:         "easy uses ease before bonus",
			interval:     10,
			ease:         2.0,
			reps:         3,
			rating:       domain.RatingEasy,
			wantInterval: 26,
			wantEase:     2.15,
			wantReps:     4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateSchedule(tc.interval, tc.ease, tc.reps, tc.rating, params)
			assert.InDelta(t, tc.wantInterval, got.interval, 1e-9)
			assert.InDelta(t, tc.wantEase, got.easeFactor, 1e-9)
			assert.Equal(t, tc.wantReps, got.repetitions)
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rating   domain.Rating
		before   int
		after    int
		expected domain.CardStatus
	}{
		{"again after streak", domain.RatingAgain, 3, 0, domain.CardStatusRelearning},
		{"again without streak", domain.RatingAgain, 0, 0, domain.CardStatusLearning},
		{"first success", domain.RatingGood, 0, 1, domain.CardStatusLearning},
		{"second success", domain.RatingHard, 1, 2, domain.CardStatusReview},
		{"long streak", domain.RatingEasy, 7, 8, domain.CardStatusReview},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, deriveStatus(tc.rating, tc.before, tc.after))
		})
	}
}

func TestCalculateNextCard(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	card := &domain.ReviewCard{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		QuestionID:   uuid.New(),
		NextReviewAt: now,
		IntervalDays: 6,
		EaseFactor:   2.5,
		Repetitions:  2,
		Status:       domain.CardStatusReview,
	}

	next := calculateNextCard(card, domain.RatingGood, now, params)

	assert.Equal(t, 15, next.IntervalDays)
	assert.Equal(t, 3, next.Repetitions)
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9)
	assert.Equal(t, domain.CardStatusReview, next.Status)
	assert.Equal(t, now.Add(15*24*time.Hour), next.NextReviewAt)
	require.NotNil(t, next.LastReviewedAt)
	assert.Equal(t, now, *next.LastReviewedAt)

	// Input is untouched.
	assert.Equal(t, 6, card.IntervalDays)
	assert.Equal(t, 2, card.Repetitions)
	assert.Nil(t, card.LastReviewedAt)
}

func TestCalculateNextCard_RoundsStoredValues(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	card := &domain.ReviewCard{
		UserID:       uuid.New(),
		QuestionID:   uuid.New(),
		IntervalDays: 7,
		EaseFactor:   1.87,
		Repetitions:  4,
		Status:       domain.CardStatusReview,
	}

	next := calculateNextCard(card, domain.RatingGood, now, params)
	// 7 * 1.87 = 13.09
	assert.Equal(t, 13, next.IntervalDays)

	next = calculateNextCard(card, domain.RatingHard, now, params)
	// 7 * 1.2 = 8.4, ease 1.72
	assert.Equal(t, 8, next.IntervalDays)
	assert.InDelta(t, 1.72, next.EaseFactor, 1e-9)
}

func TestCalculateNextCard_EaseStaysInBounds(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	ratings := []domain.Rating{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy}
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for run := 0; run < 50; run++ {
		card, err := domain.NewReviewCard(uuid.New(), uuid.New(), now)
		require.NoError(t, err)

		for i := 0; i < 40; i++ {
			rating := ratings[rng.Intn(len(ratings))]
			before := card.Repetitions
			card = calculateNextCard(card, rating, now, params)

			require.GreaterOrEqual(t, card.EaseFactor, domain.MinEaseFactor)
			require.LessOrEqual(t, card.EaseFactor, domain.MaxEaseFactor)
			require.GreaterOrEqual(t, card.IntervalDays, 0)
			require.NoError(t, card.Validate())
			if rating == domain.RatingAgain {
				require.Equal(t, 0, card.Repetitions)
				require.Equal(t, 1, card.IntervalDays)
			} else {
				require.Equal(t, before+1, card.Repetitions)
			}
		}
	}
}
