package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/service/card_review"
)

// ReviewHandler exposes the review coordinator over HTTP.
type ReviewHandler struct {
	reviewService card_review.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService card_review.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// GetDueItems handles GET /api/reviews/due.
func (h *ReviewHandler) GetDueItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwnerID(w, r, log)
	if !ok {
		return
	}

	items, err := h.reviewService.GetDueItems(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("due items served", slog.Int("count", len(items)))
	shared.RespondWithJSON(w, r, http.StatusOK, dueItemsToResponse(items))
}

// RecordReview handles POST /api/reviews/{id}/answer.
func (h *ReviewHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, itemID, ok := handleOwnerIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ReviewAnswerRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	record, err := h.reviewService.RecordReview(r.Context(), ownerID, itemID, srs.Rating(req.Rating))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("review recorded",
		slog.String("item_id", itemID.String()),
		slog.Int("rating", req.Rating),
		slog.String("state", record.Card.State.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}

// GetReviewStats handles GET /api/reviews/stats.
func (h *ReviewHandler) GetReviewStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := requireOwnerID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.reviewService.GetReviewStats(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}
