package srs

import (
	"errors"
	"time"

	"github.com/musaabMD/expoiosweb/internal/domain"
)

// Common errors
var (
	ErrNilCard = errors.New("review card cannot be nil")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Schedule computes the card's next state after a review with the given rating.
	Schedule(card *domain.ReviewCard, rating domain.Rating, now time.Time) (*domain.ReviewCard, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrInvalidParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// Schedule implements the Service interface.
func (s *defaultService) Schedule(
	card *domain.ReviewCard,
	rating domain.Rating,
	now time.Time,
) (*domain.ReviewCard, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if !rating.Valid() {
		return nil, domain.ErrInvalidRating
	}

	return calculateNextCard(card, rating, now, s.params), nil
}
