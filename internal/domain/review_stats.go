package domain

import (
	"time"

	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// ReviewStats summarizes an owner's review collection.
// NextReviewAt is nil when the owner has no items.
type ReviewStats struct {
	DueCount     int        `json:"due_count"`
	TotalItems   int        `json:"total_items"`
	NextReviewAt *time.Time `json:"next_review_at"`
}

// DueItem is a due review record annotated with what each rating would do.
type DueItem struct {
	*ReviewRecord
	SchedulePreview srs.SchedulePreview `json:"schedule_preview"`
	Retrievability  float64             `json:"retrievability"`
}
