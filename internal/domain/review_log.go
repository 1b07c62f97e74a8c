package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// ReviewLog is the durable trace of one applied review event.
// Applying the same rating twice produces two logs.
type ReviewLog struct {
	ID            uuid.UUID  `json:"id"`
	ItemID        uuid.UUID  `json:"item_id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Rating        srs.Rating `json:"rating"`
	StateBefore   srs.State  `json:"state_before"`
	StateAfter    srs.State  `json:"state_after"`
	ElapsedDays   float64    `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	ReviewedAt    time.Time  `json:"reviewed_at"`
}

// NewReviewLog records the move of record from before to its current card.
func NewReviewLog(record *ReviewRecord, before srs.State, rating srs.Rating, reviewedAt time.Time) *ReviewLog {
	return &ReviewLog{
		ID:            uuid.New(),
		ItemID:        record.ItemID,
		OwnerID:       record.OwnerID,
		Rating:        rating,
		StateBefore:   before,
		StateAfter:    record.Card.State,
		ElapsedDays:   record.Card.ElapsedDays,
		ScheduledDays: record.Card.ScheduledDays,
		ReviewedAt:    reviewedAt.UTC(),
	}
}
