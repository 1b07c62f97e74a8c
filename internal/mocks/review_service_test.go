package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockReviewService_Defaults(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	m := &MockReviewService{Stats: &domain.ReviewStats{DueCount: 2}, Err: errBoom}

	stats, err := m.GetReviewStats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, stats.DueCount)
}

func TestMockReviewService_RecordsCalls(t *testing.T) {
	t.Parallel()
	owner, item := uuid.New(), uuid.New()
	m := &MockReviewService{
		RecordReviewFn: func(ctx context.Context, ownerID, itemID uuid.UUID, rating srs.Rating) (*domain.ReviewRecord, error) {
			return &domain.ReviewRecord{ItemID: itemID, OwnerID: ownerID}, nil
		},
	}

	record, err := m.RecordReview(context.Background(), owner, item, srs.Hard)
	require.NoError(t, err)
	assert.Equal(t, item, record.ItemID)
	assert.Equal(t, []RecordReviewCall{{OwnerID: owner, ItemID: item, Rating: srs.Hard}}, m.RecordReviewCalls())
}
