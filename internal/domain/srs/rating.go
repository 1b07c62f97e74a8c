package srs

import (
	"fmt"
	"strings"
)

// Rating is the user's self-reported recall quality at review time.
type Rating int

// Possible rating values. The numeric values are part of the external contract.
const (
	Again Rating = iota + 1 // 1
	Hard                    // 2
	Good                    // 3
	Easy                    // 4
)

// AllRatings returns the four ratings in ascending order.
func AllRatings() []Rating {
	return []Rating{Again, Hard, Good, Easy}
}

// IsValid reports whether r is one of Again, Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the lower-case name of the rating.
func (r Rating) String() string {
	switch r {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRating converts a rating name ("again", "hard", "good", "easy") into a Rating.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again":
		return Again, nil
	case "hard":
		return Hard, nil
	case "good":
		return Good, nil
	case "easy":
		return Easy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}
