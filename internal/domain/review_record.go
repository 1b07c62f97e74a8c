package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// Review record validation errors
var (
	// ErrRecordItemIDEmpty is returned when a review record's item ID is empty or nil.
	ErrRecordItemIDEmpty = errors.New("review record item ID cannot be empty")

	// ErrRecordOwnerIDEmpty is returned when a review record's owner ID is empty or nil.
	ErrRecordOwnerIDEmpty = errors.New("review record owner ID cannot be empty")
)

// ReviewRecord associates a scheduler Card with an opaque item reference, the
// time the item is next due and the owner it belongs to.
//
// ItemKey and Payload belong to the system that created the item and are
// passed through unmodified.
type ReviewRecord struct {
	ItemID    uuid.UUID       `json:"item_id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	ItemKey   string          `json:"item_key"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Card      srs.Card        `json:"card"`
	DueAt     time.Time       `json:"due_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewReviewRecord creates a record holding a New card that is due at now.
// It generates a new UUID for the item.
// Returns an error if validation fails.
func NewReviewRecord(
	ownerID uuid.UUID,
	itemKey string,
	payload json.RawMessage,
	now time.Time,
) (*ReviewRecord, error) {
	now = now.UTC()
	record := &ReviewRecord{
		ItemID:    uuid.New(),
		OwnerID:   ownerID,
		ItemKey:   itemKey,
		Payload:   payload,
		Card:      srs.NewCard(),
		DueAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ReviewRecord has valid data.
func (r *ReviewRecord) Validate() error {
	if r.ItemID == uuid.Nil {
		return ErrRecordItemIDEmpty
	}

	if r.OwnerID == uuid.Nil {
		return ErrRecordOwnerIDEmpty
	}

	if r.ItemKey == "" {
		return ErrEmptyItemKey
	}

	if len(r.Payload) > 0 && !json.Valid(r.Payload) {
		return ErrInvalidPayload
	}

	return r.Card.Validate()
}

// IsDue reports whether the record is due for review at now.
func (r *ReviewRecord) IsDue(now time.Time) bool {
	return !r.DueAt.After(now)
}

// ApplySchedule replaces the card and due time with a scheduler result and
// bumps UpdatedAt.
func (r *ReviewRecord) ApplySchedule(result srs.Result, now time.Time) {
	r.Card = result.Card
	r.DueAt = result.NextReviewAt.UTC()
	r.UpdatedAt = now.UTC()
}
