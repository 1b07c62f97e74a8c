package srs

import (
	"fmt"
	"time"
)

// Result is the outcome of applying one rating to a card.
type Result struct {
	Card         Card
	NextReviewAt time.Time
}

// Service defines the interface for scheduling operations.
//
// Implementations are pure: they hold no mutable state and are safe for
// concurrent use.
type Service interface {
	// CalculateNextReview applies rating to card at now and returns the new
	// card with its next review time. The input card is not modified.
	CalculateNextReview(card Card, rating Rating, now time.Time) (Result, error)

	// PreviewSchedule returns, for every rating, the bucketed interval the
	// card would be scheduled for. It never advances the card.
	PreviewSchedule(card Card, now time.Time) (SchedulePreview, error)

	// Retrievability returns the current recall probability of card, 0 for a
	// card that was never reviewed.
	Retrievability(card Card, now time.Time) float64

	// Params returns a copy of the parameters in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params Params
}

// NewDefaultService creates a new scheduler with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: *NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler with custom parameters.
// The parameters are copied, so later changes to params have no effect.
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{
		params: *params,
	}, nil
}

// CalculateNextReview implements the Service interface
func (s *defaultService) CalculateNextReview(card Card, rating Rating, now time.Time) (Result, error) {
	if !rating.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if err := card.Validate(); err != nil {
		return Result{}, err
	}

	next, due := calculateNext(card, rating, now, &s.params)
	return Result{Card: next, NextReviewAt: due}, nil
}

// PreviewSchedule implements the Service interface
func (s *defaultService) PreviewSchedule(card Card, now time.Time) (SchedulePreview, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return preview(card, now, &s.params), nil
}

// Retrievability implements the Service interface
func (s *defaultService) Retrievability(card Card, now time.Time) float64 {
	if card.State == New || card.LastReview == nil {
		return 0
	}
	return retrievability(elapsedDaysSince(*card.LastReview, now), card.Stability)
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return s.params
}
