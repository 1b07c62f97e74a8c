package card_review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// ReviewService coordinates the persisted review collection with the
// scheduler: it finds due items, applies ratings and reports statistics.
type ReviewService interface {
	// GetDueItems returns the owner's items with a due time at or before now,
	// ordered by due time and then item ID, each annotated with the interval
	// every rating would schedule and its current retrievability.
	//
	// Returns an empty, non-nil slice when nothing is due.
	GetDueItems(ctx context.Context, ownerID uuid.UUID) ([]*domain.DueItem, error)

	// RecordReview applies rating to an item and persists the new card, the
	// new due time and a review log entry in one transaction.
	//
	// Reviews of the same item are applied one at a time. Reviews of different
	// items proceed in parallel.
	//
	// Returns:
	//   - (*domain.ReviewRecord, nil): the record as stored after the review
	//   - (nil, ErrInvalidRating): rating is not 1 through 4
	//   - (nil, ErrItemNotFound): the item does not exist or belongs to another owner
	//   - (nil, *ServiceError): storage failed or concurrent updates kept conflicting
	RecordReview(
		ctx context.Context,
		ownerID uuid.UUID,
		itemID uuid.UUID,
		rating srs.Rating,
	) (*domain.ReviewRecord, error)

	// GetReviewStats summarizes the owner's collection as of now.
	GetReviewStats(ctx context.Context, ownerID uuid.UUID) (*domain.ReviewStats, error)
}

// Common error types for ReviewService
var (
	// ErrItemNotFound indicates that the item does not exist for the requesting owner.
	// Items owned by someone else are reported the same way.
	ErrItemNotFound = errors.New("review item not found")

	// ErrInvalidRating indicates a rating outside 1 (again) through 4 (easy).
	// It matches domain.ErrValidation and srs.ErrInvalidRating with errors.Is.
	ErrInvalidRating = domain.NewValidationError(
		"rating",
		"must be between 1 (again) and 4 (easy)",
		srs.ErrInvalidRating,
	)
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "get_due_items", "record_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewRecordReviewError returns a new ServiceError for the record_review operation.
func NewRecordReviewError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "record_review",
		Message:   message,
		Err:       err,
	}
}

// NewGetDueItemsError returns a new ServiceError for the get_due_items operation.
func NewGetDueItemsError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "get_due_items",
		Message:   message,
		Err:       err,
	}
}

// NewGetReviewStatsError returns a new ServiceError for the get_review_stats operation.
func NewGetReviewStatsError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "get_review_stats",
		Message:   message,
		Err:       err,
	}
}
