package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/mocks"
	"github.com/phrazzld/scry-review/internal/platform/locks"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/service/card_review"
	"github.com/phrazzld/scry-review/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithMock(t *testing.T, svc *mocks.MockReviewService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewReviewHandler(svc, nil)

	r := chi.NewRouter()
	r.Get("/api/reviews/due", handler.GetDueItems)
	r.Get("/api/reviews/stats", handler.GetReviewStats)
	r.Post("/api/reviews/{id}/answer", handler.RecordReview)

	log, _ := logger.GetTestLogger(t)
	ctx := logger.WithLogger(shared.WithOwnerID(context.Background(), uuid.New()), log)
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReviewHandler_ServiceFailures(t *testing.T) {
	t.Parallel()
	answerPath := "/api/reviews/" + uuid.NewString() + "/answer"
	errDB := errors.New("connection reset by peer")

	testCases := []struct {
		name       string
		svc        *mocks.MockReviewService
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "due items storage failure",
			svc:        &mocks.MockReviewService{Err: card_review.NewGetDueItemsError("failed to list due items", errDB)},
			method:     http.MethodGet,
			path:       "/api/reviews/due",
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to get due items",
		},
		{
			name:       "stats storage failure",
			svc:        &mocks.MockReviewService{Err: card_review.NewGetReviewStatsError("failed to aggregate review stats", errDB)},
			method:     http.MethodGet,
			path:       "/api/reviews/stats",
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to get review statistics",
		},
		{
			name: "lock not acquired",
			svc: &mocks.MockReviewService{Err: card_review.NewRecordReviewError("failed to acquire item lock",
				fmt.Errorf("%w: %w", locks.ErrLockUnavailable, context.DeadlineExceeded))},
			method:     http.MethodPost,
			path:       answerPath,
			body:       `{"rating": 2}`,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Review item is busy, try again",
		},
		{
			name: "conflicts exhausted",
			svc: &mocks.MockReviewService{Err: card_review.NewRecordReviewError("concurrent updates did not settle",
				store.ErrConflict)},
			method:     http.MethodPost,
			path:       answerPath,
			body:       `{"rating": 2}`,
			wantStatus: http.StatusConflict,
			wantError:  "Review item was modified concurrently, try again",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := serveWithMock(t, tc.svc, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantError, decodeError(t, w))
		})
	}
}

func TestReviewHandler_PassesRating(t *testing.T) {
	t.Parallel()
	itemID := uuid.New()
	record, err := domain.NewReviewRecord(uuid.New(), "k", nil, testNow)
	require.NoError(t, err)
	svc := &mocks.MockReviewService{Record: record}

	w := serveWithMock(t, svc, http.MethodPost, "/api/reviews/"+itemID.String()+"/answer", `{"rating": 1}`)
	require.Equal(t, http.StatusOK, w.Code)

	calls := svc.RecordReviewCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, itemID, calls[0].ItemID)
	assert.Equal(t, srs.Again, calls[0].Rating)
}
