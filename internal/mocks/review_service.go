package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/service/card_review"
)

// RecordReviewCall captures the arguments of one RecordReview call.
type RecordReviewCall struct {
	OwnerID uuid.UUID
	ItemID  uuid.UUID
	Rating  srs.Rating
}

// MockReviewService implements card_review.ReviewService for testing
type MockReviewService struct {
	GetDueItemsFn    func(ctx context.Context, ownerID uuid.UUID) ([]*domain.DueItem, error)
	RecordReviewFn   func(ctx context.Context, ownerID, itemID uuid.UUID, rating srs.Rating) (*domain.ReviewRecord, error)
	GetReviewStatsFn func(ctx context.Context, ownerID uuid.UUID) (*domain.ReviewStats, error)

	// Default response values
	DueItems []*domain.DueItem
	Record   *domain.ReviewRecord
	Stats    *domain.ReviewStats
	Err      error

	mu                sync.Mutex
	recordReviewCalls []RecordReviewCall
}

var _ card_review.ReviewService = (*MockReviewService)(nil)

// GetDueItems implements the card_review.ReviewService interface
func (m *MockReviewService) GetDueItems(ctx context.Context, ownerID uuid.UUID) ([]*domain.DueItem, error) {
	if m.GetDueItemsFn != nil {
		return m.GetDueItemsFn(ctx, ownerID)
	}
	return m.DueItems, m.Err
}

// RecordReview implements the card_review.ReviewService interface
func (m *MockReviewService) RecordReview(
	ctx context.Context,
	ownerID uuid.UUID,
	itemID uuid.UUID,
	rating srs.Rating,
) (*domain.ReviewRecord, error) {
	m.mu.Lock()
	m.recordReviewCalls = append(m.recordReviewCalls, RecordReviewCall{OwnerID: ownerID, ItemID: itemID, Rating: rating})
	m.mu.Unlock()

	if m.RecordReviewFn != nil {
		return m.RecordReviewFn(ctx, ownerID, itemID, rating)
	}
	return m.Record, m.Err
}

// GetReviewStats implements the card_review.ReviewService interface
func (m *MockReviewService) GetReviewStats(ctx context.Context, ownerID uuid.UUID) (*domain.ReviewStats, error) {
	if m.GetReviewStatsFn != nil {
		return m.GetReviewStatsFn(ctx, ownerID)
	}
	return m.Stats, m.Err
}

// RecordReviewCalls returns the arguments of every RecordReview call so far.
func (m *MockReviewService) RecordReviewCalls() []RecordReviewCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordReviewCall(nil), m.recordReviewCalls...)
}
