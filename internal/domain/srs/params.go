package srs

import (
	"github.com/phrazzld/curator-srs/internal/domain"
)

// Params defines all configurable parameters for the SM-2 algorithm and the
// forgetting curve built on top of it.
type Params struct {
	// Ease factor bounds; MaxEaseFactor of 0 means no upper bound
	MinEaseFactor     float64
	MaxEaseFactor     float64
	InitialEaseFactor float64

	// Ease update: ease' = ease + (EaseBase - d*(EaseLinear + d*EaseQuadratic)), d = 5-quality
	EaseBase      float64
	EaseLinear    float64
	EaseQuadratic float64

	// Fixed intervals in days
	FirstInterval  float64
	SecondInterval float64
	LapseInterval  float64

	// HistoryLimit bounds the review history kept on an item
	HistoryLimit int

	// RepetitionStabilityBonus scales stability per successful repetition
	RepetitionStabilityBonus float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	MinEaseFactor     float64
	MaxEaseFactor     float64
	InitialEaseFactor float64

	EaseBase      float64
	EaseLinear    float64
	EaseQuadratic float64

	FirstInterval  float64
	SecondInterval float64
	LapseInterval  float64

	HistoryLimit int

	RepetitionStabilityBonus float64
}

// NewDefaultParams creates a new Params instance with the standard SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     domain.MinEaseFactor,
		MaxEaseFactor:     0,
		InitialEaseFactor: domain.DefaultEaseFactor,

		EaseBase:      0.1,
		EaseLinear:    0.08,
		EaseQuadratic: 0.02,

		FirstInterval:  1,
		SecondInterval: 6,
		LapseInterval:  1,

		HistoryLimit: 50,

		RepetitionStabilityBonus: 0.1,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Core limits
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if config.InitialEaseFactor > 0 {
		params.InitialEaseFactor = config.InitialEaseFactor
	}

	// Ease formula constants
	if config.EaseBase > 0 {
		params.EaseBase = config.EaseBase
	}
	if config.EaseLinear > 0 {
		params.EaseLinear = config.EaseLinear
	}
	if config.EaseQuadratic > 0 {
		params.EaseQuadratic = config.EaseQuadratic
	}

	// Intervals
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}

	if config.HistoryLimit > 0 {
		params.HistoryLimit = config.HistoryLimit
	}

	if config.RepetitionStabilityBonus > 0 {
		params.RepetitionStabilityBonus = config.RepetitionStabilityBonus
	}

	return params
}
