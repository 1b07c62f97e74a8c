package srs

import "errors"

// Common errors
var (
	ErrInvalidRating = errors.New("invalid rating")
	ErrInvalidState  = errors.New("invalid card state")
	ErrInvalidCard   = errors.New("invalid card")
	ErrInvalidParams = errors.New("invalid scheduler parameters")
)
