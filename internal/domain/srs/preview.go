package srs

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// IntervalUnit is the display unit of a bucketed interval.
type IntervalUnit string

// Interval units.
const (
	Minutes IntervalUnit = "m"
	Hours   IntervalUnit = "h"
	Days    IntervalUnit = "d"
)

// Interval is a duration rounded to the nearest whole unit for display.
type Interval struct {
	Value int          `json:"value"`
	Unit  IntervalUnit `json:"unit"`
}

// String renders the interval as a compact label such as "10m", "3h" or "4d".
func (i Interval) String() string {
	return fmt.Sprintf("%d%s", i.Value, i.Unit)
}

// BucketDuration converts d to minutes if it is under an hour, to hours if it
// is under a day and to days otherwise, rounding to the nearest whole unit.
// Negative durations are treated as zero.
func BucketDuration(d time.Duration) Interval {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return Interval{Value: int(math.Round(d.Minutes())), Unit: Minutes}
	case d < hoursPerDay*time.Hour:
		return Interval{Value: int(math.Round(d.Hours())), Unit: Hours}
	default:
		return Interval{Value: int(math.Round(d.Hours() / hoursPerDay)), Unit: Days}
	}
}

// SchedulePreview maps every rating to the interval the card would be
// scheduled for if that rating were chosen now.
type SchedulePreview map[Rating]Interval

// Labels returns the preview keyed by rating name with string labels, the form
// used in API responses.
func (p SchedulePreview) Labels() map[string]string {
	out := make(map[string]string, len(p))
	for rating, interval := range p {
		out[rating.String()] = interval.String()
	}
	return out
}

// MarshalJSON encodes the preview as {"again":"1m","hard":"3d",...}.
func (p SchedulePreview) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Labels())
}

// preview computes the four-rating preview on copies of card.
func preview(card Card, now time.Time, params *Params) SchedulePreview {
	out := make(SchedulePreview, len(AllRatings()))
	for _, rating := range AllRatings() {
		_, due := calculateNext(card, rating, now, params)
		out[rating] = BucketDuration(due.Sub(now))
	}
	return out
}
