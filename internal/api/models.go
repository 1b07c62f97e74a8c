package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// ReviewAnswerRequest defines the payload for submitting a review rating.
type ReviewAnswerRequest struct {
	// Rating is 1 (again), 2 (hard), 3 (good) or 4 (easy).
	Rating int `json:"rating" validate:"required,min=1,max=4"`
}

// CardStateResponse is the scheduler state of a review item.
type CardStateResponse struct {
	State         string     `json:"state"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   float64    `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	LastReview    *time.Time `json:"last_review"`
}

// ReviewRecordResponse is a review item as stored.
type ReviewRecordResponse struct {
	ItemID    uuid.UUID         `json:"item_id"`
	ItemKey   string            `json:"item_key"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Card      CardStateResponse `json:"card"`
	DueAt     time.Time         `json:"due_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DueItemResponse is a due review item with the interval each rating would
// schedule, keyed by rating name.
type DueItemResponse struct {
	ReviewRecordResponse
	SchedulePreview map[string]string `json:"schedule_preview"`
	Retrievability  float64           `json:"retrievability"`
}

// DueItemsResponse lists the owner's due items, most overdue first.
type DueItemsResponse struct {
	Items []DueItemResponse `json:"items"`
}

// ReviewStatsResponse summarizes the owner's review collection.
type ReviewStatsResponse struct {
	DueCount     int        `json:"due_count"`
	TotalItems   int        `json:"total_items"`
	NextReviewAt *time.Time `json:"next_review_at"`
}

func recordToResponse(record *domain.ReviewRecord) ReviewRecordResponse {
	card := record.Card
	return ReviewRecordResponse{
		ItemID:  record.ItemID,
		ItemKey: record.ItemKey,
		Payload: record.Payload,
		Card: CardStateResponse{
			State:         card.State.String(),
			Stability:     card.Stability,
			Difficulty:    card.Difficulty,
			ElapsedDays:   card.ElapsedDays,
			ScheduledDays: card.ScheduledDays,
			Reps:          card.Reps,
			Lapses:        card.Lapses,
			LastReview:    card.LastReview,
		},
		DueAt:     record.DueAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func dueItemsToResponse(items []*domain.DueItem) DueItemsResponse {
	resp := DueItemsResponse{Items: make([]DueItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, DueItemResponse{
			ReviewRecordResponse: recordToResponse(item.ReviewRecord),
			SchedulePreview:      item.SchedulePreview.Labels(),
			Retrievability:       item.Retrievability,
		})
	}
	return resp
}

func statsToResponse(stats *domain.ReviewStats) ReviewStatsResponse {
	return ReviewStatsResponse{
		DueCount:     stats.DueCount,
		TotalItems:   stats.TotalItems,
		NextReviewAt: stats.NextReviewAt,
	}
}
