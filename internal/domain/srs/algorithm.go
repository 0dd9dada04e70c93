package srs

import (
	"math"
	"time"

	"github.com/musaabMD/expoiosweb/internal/domain"
)

const day = 24 * time.Hour

// schedule is the unrounded result of one review.
type schedule struct {
	interval    float64
	easeFactor  float64
	repetitions int
}

// calculateSchedule applies the four rating branches to the stored card values.
//
// Order matters: a failing rating resets the streak before anything else, and
// the easy branch computes the interval with the ease factor as it was before
// the bonus is added.
func calculateSchedule(
	interval int,
	easeFactor float64,
	repetitions int,
	rating domain.Rating,
	params *Params,
) schedule {
	if rating == domain.RatingAgain {
		return schedule{
			interval:    float64(params.AgainInterval),
			easeFactor:  math.Max(params.MinEaseFactor, easeFactor-params.AgainEasePenalty),
			repetitions: 0,
		}
	}

	next := schedule{
		interval:    float64(interval),
		easeFactor:  easeFactor,
		repetitions: repetitions + 1,
	}

	switch rating {
	case domain.RatingHard:
		next.interval = float64(interval) * params.HardIntervalModifier
		next.easeFactor = math.Max(params.MinEaseFactor, easeFactor-params.HardEasePenalty)
	case domain.RatingGood:
		switch next.repetitions {
		case 1:
			next.interval = float64(params.FirstGoodInterval)
		case 2:
			next.interval = float64(params.SecondGoodInterval)
		default:
			next.interval = float64(interval) * easeFactor
		}
	case domain.RatingEasy:
		if next.repetitions == 1 {
			next.interval = float64(params.FirstEasyInterval)
		} else {
			next.interval = float64(interval) * easeFactor * params.EasyIntervalModifier
		}
		next.easeFactor = math.Min(params.MaxEaseFactor, easeFactor+params.EasyEaseBonus)
	}

	return next
}

// deriveStatus maps the outcome of a review onto a card status. It depends only
// on the rating and the streak, never on the previous status.
func deriveStatus(rating domain.Rating, previousRepetitions, repetitions int) domain.CardStatus {
	if rating == domain.RatingAgain {
		if previousRepetitions > 0 {
			return domain.CardStatusRelearning
		}
		return domain.CardStatusLearning
	}
	if repetitions >= 2 {
		return domain.CardStatusReview
	}
	return domain.CardStatusLearning
}

// roundEase rounds an ease factor to two decimal places.
func roundEase(ease float64) float64 {
	return math.Round(ease*100) / 100
}

// clampEase keeps a stored ease factor within the configured bounds.
func clampEase(ease float64, params *Params) float64 {
	return math.Min(params.MaxEaseFactor, math.Max(params.MinEaseFactor, ease))
}

// calculateNextCard returns a copy of card scheduled according to rating.
// The input card is never modified.
func calculateNextCard(
	card *domain.ReviewCard,
	rating domain.Rating,
	now time.Time,
	params *Params,
) *domain.ReviewCard {
	now = now.UTC()
	next := *card

	s := calculateSchedule(card.IntervalDays, card.EaseFactor, card.Repetitions, rating, params)

	next.IntervalDays = int(math.Round(s.interval))
	next.EaseFactor = clampEase(roundEase(s.easeFactor), params)
	next.Repetitions = s.repetitions
	next.Status = deriveStatus(rating, card.Repetitions, s.repetitions)
	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * day)
	next.LastReviewedAt = &now
	next.UpdatedAt = now

	return &next
}
