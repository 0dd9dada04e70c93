package srs

import (
	"errors"
	"fmt"

	"github.com/musaabMD/expoiosweb/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot produce valid schedules.
var ErrInvalidParams = errors.New("invalid srs parameters")

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Ease adjustments applied by the failing, hard and easy branches
	AgainEasePenalty float64
	HardEasePenalty  float64
	EasyEaseBonus    float64

	// Interval multipliers
	HardIntervalModifier float64
	EasyIntervalModifier float64

	// Fixed intervals in days
	AgainInterval      int
	FirstGoodInterval  int
	SecondGoodInterval int
	FirstEasyInterval  int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero fields keep their defaults.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	AgainEasePenalty float64
	HardEasePenalty  float64
	EasyEaseBonus    float64

	HardIntervalModifier float64
	EasyIntervalModifier float64

	AgainInterval      int
	FirstGoodInterval  int
	SecondGoodInterval int
	FirstEasyInterval  int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: domain.MaxEaseFactor,

		AgainEasePenalty: 0.20,
		HardEasePenalty:  0.15,
		EasyEaseBonus:    0.15,

		HardIntervalModifier: 1.2,
		EasyIntervalModifier: 1.3,

		AgainInterval:      1,
		FirstGoodInterval:  1,
		SecondGoodInterval: 6,
		FirstEasyInterval:  4,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	if config.AgainEasePenalty > 0 {
		params.AgainEasePenalty = config.AgainEasePenalty
	}
	if config.HardEasePenalty > 0 {
		params.HardEasePenalty = config.HardEasePenalty
	}
	if config.EasyEaseBonus > 0 {
		params.EasyEaseBonus = config.EasyEaseBonus
	}

	if config.HardIntervalModifier > 0 {
		params.HardIntervalModifier = config.HardIntervalModifier
	}
	if config.EasyIntervalModifier > 0 {
		params.EasyIntervalModifier = config.EasyIntervalModifier
	}

	if config.AgainInterval > 0 {
		params.AgainInterval = config.AgainInterval
	}
	if config.FirstGoodInterval > 0 {
		params.FirstGoodInterval = config.FirstGoodInterval
	}
	if config.SecondGoodInterval > 0 {
		params.SecondGoodInterval = config.SecondGoodInterval
	}
	if config.FirstEasyInterval > 0 {
		params.FirstEasyInterval = config.FirstEasyInterval
	}

	return params
}

// Validate checks that the parameters keep ease factors inside the card bounds.
func (p *Params) Validate() error {
	if p.MinEaseFactor < domain.MinEaseFactor || p.MaxEaseFactor > domain.MaxEaseFactor {
		return fmt.Errorf("%w: ease bounds [%.2f, %.2f] exceed [%.2f, %.2f]",
			ErrInvalidParams, p.MinEaseFactor, p.MaxEaseFactor, domain.MinEaseFactor, domain.MaxEaseFactor)
	}
	if p.MinEaseFactor > p.MaxEaseFactor {
		return fmt.Errorf("%w: min ease %.2f above max ease %.2f", ErrInvalidParams, p.MinEaseFactor, p.MaxEaseFactor)
	}
	if p.HardIntervalModifier <= 0 || p.EasyIntervalModifier <= 0 {
		return fmt.Errorf("%w: interval modifiers must be positive", ErrInvalidParams)
	}
	if p.AgainInterval < 0 || p.FirstGoodInterval < 0 || p.SecondGoodInterval < 0 || p.FirstEasyInterval < 0 {
		return fmt.Errorf("%w: fixed intervals must not be negative", ErrInvalidParams)
	}
	return nil
}
