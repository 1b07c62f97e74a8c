package srs

import (
	"fmt"
	"math"
)

// assertTransition panics when a single review moved a card along an edge
// that allowedTransitions does not list.
func assertTransition(from, to State) {
	if !from.CanTransitionTo(to) {
		// ALLOW-PANIC: illegal state transitions are programming errors
		panic(fmt.Sprintf("srs: illegal transition %s -> %s", from, to))
	}
}

// assertCardInvariants panics when a freshly scheduled card breaks the
// numeric bounds of the memory model.
func assertCardInvariants(card Card) {
	if math.IsNaN(card.Stability) || math.IsInf(card.Stability, 0) || card.Stability < MinStability {
		// ALLOW-PANIC: stability is floored by every update rule
		panic(fmt.Sprintf("srs: stability %v below floor %v", card.Stability, MinStability))
	}
	if math.IsNaN(card.Difficulty) || card.Difficulty < MinDifficulty || card.Difficulty > MaxDifficulty {
		// ALLOW-PANIC: difficulty is clamped by every update rule
		panic(fmt.Sprintf("srs: difficulty %v outside [%v, %v]", card.Difficulty, MinDifficulty, MaxDifficulty))
	}
	if card.State.IsShortTerm() && card.ScheduledDays != 0 {
		// ALLOW-PANIC: short-term states are scheduled in minutes
		panic(fmt.Sprintf("srs: %s card has %d scheduled days", card.State, card.ScheduledDays))
	}
	if card.State == Review && card.ScheduledDays < 1 {
		// ALLOW-PANIC: review intervals are at least one day
		panic(fmt.Sprintf("srs: review card has %d scheduled days", card.ScheduledDays))
	}
}
