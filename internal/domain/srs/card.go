package srs

import (
	"fmt"
	"math"
	"time"
)

// Card is the memory state of one learnable item for one user.
//
// Stability and Difficulty are unused while the card is New. ScheduledDays is
// only meaningful in the Review state; Learning and Relearning cards are
// rescheduled in minutes and keep ScheduledDays at 0.
type Card struct {
	Stability     float64    `json:"stability"`      // days until recall probability falls to ~90%
	Difficulty    float64    `json:"difficulty"`     // intrinsic hardness, always within [1, 10] once reviewed
	ElapsedDays   float64    `json:"elapsed_days"`   // days between the two most recent reviews
	ScheduledDays int        `json:"scheduled_days"` // interval chosen at the last scheduling event
	Reps          int        `json:"reps"`           // total review events applied
	Lapses        int        `json:"lapses"`         // Review -> Relearning regressions
	State         State      `json:"state"`
	LastReview    *time.Time `json:"last_review"` // nil only for a card that was never reviewed
}

// NewCard returns a card that has never been reviewed.
func NewCard() Card {
	return Card{State: New}
}

// IsNew reports whether the card has never been reviewed.
func (c Card) IsNew() bool {
	return c.State == New
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.LastReview != nil {
		lr := *c.LastReview
		out.LastReview = &lr
	}
	return out
}

// Validate checks that a stored card is internally consistent.
func (c Card) Validate() error {
	if !c.State.IsValid() {
		return fmt.Errorf("%w: %w", ErrInvalidCard, ErrInvalidState)
	}
	if c.Reps < 0 || c.Lapses < 0 || c.ScheduledDays < 0 || c.ElapsedDays < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidCard)
	}

	if c.State == New {
		if c.Reps != 0 || c.LastReview != nil {
			return fmt.Errorf("%w: new card must have no reviews", ErrInvalidCard)
		}
		return nil
	}

	if c.LastReview == nil {
		return fmt.Errorf("%w: reviewed card must have a last review time", ErrInvalidCard)
	}
	if !(c.Stability >= MinStability) || math.IsInf(c.Stability, 0) {
		return fmt.Errorf("%w: stability %v below %v", ErrInvalidCard, c.Stability, MinStability)
	}
	if !(c.Difficulty >= MinDifficulty && c.Difficulty <= MaxDifficulty) {
		return fmt.Errorf("%w: difficulty %v outside [%v, %v]",
			ErrInvalidCard, c.Difficulty, MinDifficulty, MaxDifficulty)
	}
	return nil
}
