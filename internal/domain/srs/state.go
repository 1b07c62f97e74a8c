package srs

import "fmt"

// State is the learning phase of a card.
type State uint8

// Card states.
const (
	New        State = iota // never reviewed
	Learning                // first exposures, minute-scale intervals
	Review                  // day-scale intervals driven by stability
	Relearning              // lapsed from Review, minute-scale intervals
)

// allowedTransitions lists, per state, every state a single review may lead to.
// Learning never leads to Relearning and nothing leads back to New.
var allowedTransitions = map[State][]State{
	New:        {Learning, Review},
	Learning:   {Learning, Review},
	Review:     {Review, Relearning},
	Relearning: {Relearning, Review},
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s <= Relearning
}

// IsShortTerm reports whether cards in this state are rescheduled in minutes.
func (s State) IsShortTerm() bool {
	return s == Learning || s == Relearning
}

// CanTransitionTo reports whether one review may move a card from s to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Learning:
		return "learning"
	case Review:
		return "review"
	case Relearning:
		return "relearning"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ParseState converts a state name into a State.
func ParseState(name string) (State, error) {
	switch name {
	case "new":
		return New, nil
	case "learning":
		return Learning, nil
	case "review":
		return Review, nil
	case "relearning":
		return Relearning, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
