package srs

import (
	"fmt"
	"math"
)

// Model bounds shared by every parameter set.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
	MinStability  = 0.1

	// lapseStabilityFactor scales stability when a Review card is forgotten.
	lapseStabilityFactor = 0.2
	// shortTermAgainFactor scales stability when a Learning/Relearning card is forgotten again.
	shortTermAgainFactor = 0.5
)

// WeightCount is the length of the model weight vector.
const WeightCount = 13

// Weights is the model weight vector W[0..12].
//
//	W0..W3  initial stability for Again, Hard, Good, Easy
//	W4, W5  initial difficulty baseline and per-rating step
//	W6      difficulty step on later reviews
//	W7      mean reversion toward the "Good" baseline
//	W8..W10 recall stability growth (scale, stability decay, retrievability gain)
//	W11     Hard penalty
//	W12     Easy bonus
//
// Weights is an array, so every copy is independent of the original.
type Weights [WeightCount]float64

// DefaultWeights returns the default weight vector.
func DefaultWeights() Weights {
	return Weights{0.4, 0.6, 2.4, 5.8, 4.93, 0.94, 0.86, 0.01, 1.49, 0.14, 0.94, 0.29, 2.61}
}

// Validate checks that the weights keep every update rule well defined.
func (w Weights) Validate() error {
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight W%d is not finite", ErrInvalidParams, i)
		}
	}
	for i := 0; i < 4; i++ {
		if w[i] <= 0 {
			return fmt.Errorf("%w: initial stability W%d must be positive", ErrInvalidParams, i)
		}
	}
	if w[4] < MinDifficulty || w[4] > MaxDifficulty {
		return fmt.Errorf("%w: W4 = %v must be within [%v, %v]", ErrInvalidParams, w[4], MinDifficulty, MaxDifficulty)
	}
	if w[7] < 0 || w[7] > 1 {
		return fmt.Errorf("%w: W7 = %v must be within [0, 1]", ErrInvalidParams, w[7])
	}
	if w[10] < 0 {
		return fmt.Errorf("%w: W10 = %v must not be negative", ErrInvalidParams, w[10])
	}
	if w[11] <= 0 || w[12] <= 0 {
		return fmt.Errorf("%w: W11 and W12 must be positive", ErrInvalidParams)
	}
	return nil
}

// Params defines all configurable parameters for the scheduler.
type Params struct {
	Weights Weights

	// Short-term re-exposure for Learning and Relearning cards
	AgainReviewMinutes    int
	LearningReviewMinutes int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Weights               []float64
	AgainReviewMinutes    int
	LearningReviewMinutes int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		Weights:               DefaultWeights(),
		AgainReviewMinutes:    1,
		LearningReviewMinutes: 10,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.Weights) > 0 {
		if len(config.Weights) != WeightCount {
			return nil, fmt.Errorf("%w: expected %d weights, got %d",
				ErrInvalidParams, WeightCount, len(config.Weights))
		}
		copy(params.Weights[:], config.Weights)
	}
	if config.AgainReviewMinutes > 0 {
		params.AgainReviewMinutes = config.AgainReviewMinutes
	}
	if config.LearningReviewMinutes > 0 {
		params.LearningReviewMinutes = config.LearningReviewMinutes
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks the whole parameter set.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: params cannot be nil", ErrInvalidParams)
	}
	if p.AgainReviewMinutes < 1 || p.LearningReviewMinutes < 1 {
		return fmt.Errorf("%w: short-term intervals must be at least one minute", ErrInvalidParams)
	}
	return p.Weights.Validate()
}
