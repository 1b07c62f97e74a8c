package srs

import (
	"math"
	"time"
)

const hoursPerDay = 24

// retrievability returns the modeled probability of recalling a card after
// elapsedDays when its stability is stability. It is 0 for a non-positive
// stability, which the stability floor keeps from happening.
func retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return 1 / (1 + elapsedDays/(9*stability))
}

// initDifficulty is the difficulty assigned on a card's first review.
func (w Weights) initDifficulty(rating Rating) float64 {
	return clamp(w[4]-float64(rating-Good)*w[5], MinDifficulty, MaxDifficulty)
}

// initStability is the stability assigned on a card's first review.
func (w Weights) initStability(rating Rating) float64 {
	return math.Max(w[rating-1], MinStability)
}

// nextDifficulty moves d by the rating and then mean-reverts it toward the
// difficulty of a first "Good" review.
func (w Weights) nextDifficulty(d float64, rating Rating) float64 {
	shifted := d - w[6]*float64(rating-Good)
	return clamp(w[7]*w.initDifficulty(Good)+(1-w[7])*shifted, MinDifficulty, MaxDifficulty)
}

// nextRecallStability is the stability after a successful recall of a card with
// difficulty d, stability s and retrievability r at review time.
//
// Growth is larger for easier cards (low d), smaller for already stable cards
// (high s) and larger the more the card had been forgotten (low r).
func (w Weights) nextRecallStability(d, s, r float64, rating Rating) float64 {
	s = math.Max(s, MinStability)

	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = w[11]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = w[12]
	}

	growth := math.Exp(w[8]) *
		(11 - d) *
		math.Pow(s, -w[9]) *
		(math.Exp((1-r)*w[10]) - 1) *
		hardPenalty *
		easyBonus

	return math.Max(s*(1+growth), MinStability)
}

// lapseStability is the stability after a Review card is forgotten.
func lapseStability(s float64) float64 {
	return math.Max(s*lapseStabilityFactor, MinStability)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// intervalDays converts a stability into a whole number of days, at least one.
func intervalDays(stability float64) int {
	days := int(math.Round(stability))
	if days < 1 {
		return 1
	}
	return days
}

// elapsedDaysSince returns the fractional number of days between last and now,
// never negative.
func elapsedDaysSince(last, now time.Time) float64 {
	elapsed := now.Sub(last).Hours() / hoursPerDay
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// stepFunc advances the memory model of a card for one rating. It sets State,
// Stability, Difficulty, ScheduledDays and Lapses; the caller owns the review
// bookkeeping shared by every state.
type stepFunc func(w Weights, card Card, rating Rating, elapsedDays float64) Card

// transitions is the single dispatch table from the current state to its step.
var transitions = [...]stepFunc{
	New:        stepNew,
	Learning:   stepShortTerm,
	Review:     stepReview,
	Relearning: stepShortTerm,
}

func stepNew(w Weights, card Card, rating Rating, _ float64) Card {
	card.Difficulty = w.initDifficulty(rating)
	card.Stability = w.initStability(rating)

	if rating == Again {
		card.State = Learning
		card.ScheduledDays = 0
		return card
	}

	card.State = Review
	card.ScheduledDays = intervalDays(card.Stability)
	return card
}

// stepShortTerm handles Learning and Relearning cards. Again keeps the state.
func stepShortTerm(w Weights, card Card, rating Rating, elapsedDays float64) Card {
	if rating == Again {
		card.Stability = math.Max(card.Stability*shortTermAgainFactor, MinStability)
		card.ScheduledDays = 0
		return card
	}

	r := retrievability(elapsedDays, card.Stability)
	card.Difficulty = w.nextDifficulty(card.Difficulty, rating)
	card.Stability = w.nextRecallStability(card.Difficulty, card.Stability, r, rating)
	card.State = Review
	card.ScheduledDays = intervalDays(card.Stability)
	return card
}

func stepReview(w Weights, card Card, rating Rating, elapsedDays float64) Card {
	r := retrievability(elapsedDays, card.Stability)
	card.Difficulty = w.nextDifficulty(card.Difficulty, rating)

	if rating == Again {
		card.Lapses++
		card.Stability = lapseStability(card.Stability)
		card.State = Relearning
		card.ScheduledDays = 0
		return card
	}

	card.Stability = w.nextRecallStability(card.Difficulty, card.Stability, r, rating)
	card.ScheduledDays = intervalDays(card.Stability)
	return card
}

// calculateNext applies one review to card and returns the new card and its
// next review time. The input card is never modified.
//
// Preconditions: rating is valid and card passes Validate.
func calculateNext(card Card, rating Rating, now time.Time, params *Params) (Card, time.Time) {
	elapsed := 0.0
	if card.State != New && card.LastReview != nil {
		elapsed = elapsedDaysSince(*card.LastReview, now)
	}

	next := transitions[card.State](params.Weights, card.Clone(), rating, elapsed)

	next.Reps = card.Reps + 1
	next.ElapsedDays = elapsed
	reviewedAt := now
	next.LastReview = &reviewedAt

	assertTransition(card.State, next.State)
	assertCardInvariants(next)

	return next, nextReviewAt(next, rating, now, params)
}

// nextReviewAt derives the due time from the scheduled card. Short-term
// states use fixed minute intervals; Review uses ScheduledDays.
func nextReviewAt(card Card, rating Rating, now time.Time, params *Params) time.Time {
	if card.State.IsShortTerm() {
		minutes := params.LearningReviewMinutes
		if rating == Again {
			minutes = params.AgainReviewMinutes
		}
		return now.Add(time.Duration(minutes) * time.Minute)
	}
	return now.AddDate(0, 0, card.ScheduledDays)
}
