package card_review

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/platform/locks"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

// DefaultMaxAttempts bounds how often RecordReview repeats a read-modify-write
// that lost a race with another writer.
const DefaultMaxAttempts = 3

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	reviewStore store.ReviewStore
	srsService  srs.Service
	locker      locks.Locker
	clock       func() time.Time
	maxAttempts int
	logger      *slog.Logger
}

// Option configures a ReviewService.
type Option func(*reviewServiceImpl)

// WithClock replaces time.Now as the source of the current time.
func WithClock(clock func() time.Time) Option {
	return func(s *reviewServiceImpl) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMaxAttempts sets how many times a conflicting review is attempted in total.
func WithMaxAttempts(n int) Option {
	return func(s *reviewServiceImpl) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	reviewStore store.ReviewStore,
	srsService srs.Service,
	locker locks.Locker,
	logger *slog.Logger,
	opts ...Option,
) ReviewService {
	// Validate inputs
	if reviewStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewStore cannot be nil")
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if locker == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("locker cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	s := &reviewServiceImpl{
		reviewStore: reviewStore,
		srsService:  srsService,
		locker:      locker,
		clock:       time.Now,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now returns the current time in the precision every store round-trips.
func (s *reviewServiceImpl) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// GetDueItems implements ReviewService.GetDueItems.
func (s *reviewServiceImpl) GetDueItems(ctx context.Context, ownerID uuid.UUID) ([]*domain.DueItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	records, err := s.reviewStore.ListDue(ctx, ownerID, now)
	if err != nil {
		log.Error("failed to list due items",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewGetDueItemsError("failed to list due items", err)
	}

	items := make([]*domain.DueItem, 0, len(records))
	for _, record := range records {
		preview, err := s.srsService.PreviewSchedule(record.Card, now)
		if err != nil {
			log.Error("stored card cannot be scheduled",
				slog.String("error", err.Error()),
				slog.String("item_id", record.ItemID.String()))
			return nil, NewGetDueItemsError("failed to preview schedule", err)
		}
		items = append(items, &domain.DueItem{
			ReviewRecord:    record,
			SchedulePreview: preview,
			Retrievability:  s.srsService.Retrievability(record.Card, now),
		})
	}

	log.Debug("retrieved due items",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// RecordReview implements ReviewService.RecordReview.
func (s *reviewServiceImpl) RecordReview(
	ctx context.Context,
	ownerID uuid.UUID,
	itemID uuid.UUID,
	rating srs.Rating,
) (*domain.ReviewRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("rating", int(rating)))

	if !rating.IsValid() {
		log.Warn("invalid review rating")
		return nil, ErrInvalidRating
	}

	unlock, err := s.locker.Lock(ctx, itemID.String())
	if err != nil {
		log.Error("failed to acquire item lock", slog.String("error", err.Error()))
		return nil, NewRecordReviewError("failed to acquire item lock", err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		record, err := s.applyReview(ctx, log, ownerID, itemID, rating)
		if err == nil {
			log.Debug("review recorded",
				slog.String("state", record.Card.State.String()),
				slog.Int("reps", record.Card.Reps),
				slog.Time("due_at", record.DueAt))
			return record, nil
		}

		switch {
		case errors.Is(err, ErrItemNotFound):
			return nil, ErrItemNotFound
		case errors.Is(err, store.ErrConflict) && attempt < s.maxAttempts:
			log.Warn("review conflicted with a concurrent update, retrying",
				slog.Int("attempt", attempt))
			continue
		case errors.Is(err, store.ErrConflict):
			log.Error("review kept conflicting with concurrent updates",
				slog.Int("attempts", attempt))
			return nil, NewRecordReviewError("concurrent updates did not settle", err)
		}

		log.Error("failed to record review", slog.String("error", err.Error()))
		return nil, NewRecordReviewError("failed to record review", err)
	}
}

// applyReview runs one read-modify-write of the item inside a transaction.
func (s *reviewServiceImpl) applyReview(
	ctx context.Context,
	log *slog.Logger,
	ownerID uuid.UUID,
	itemID uuid.UUID,
	rating srs.Rating,
) (*domain.ReviewRecord, error) {
	var updated *domain.ReviewRecord
	now := s.now()

	err := store.RunInTransaction(ctx, s.reviewStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.reviewStore.WithTx(tx)

		record, err := txStore.GetForUpdate(ctx, itemID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Debug("review item not found")
				return ErrItemNotFound
			}
			return err
		}

		if record.OwnerID != ownerID {
			log.Warn("review item belongs to another owner",
				slog.String("actual_owner_id", record.OwnerID.String()))
			return ErrItemNotFound
		}

		before := record.Card.State
		expectedReps := record.Card.Reps

		result, err := s.srsService.CalculateNextReview(record.Card, rating, now)
		if err != nil {
			return err
		}
		record.ApplySchedule(result, now)

		if err := txStore.Update(ctx, record, expectedReps); err != nil {
			if errors.Is(err, store.ErrReviewItemNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if err := txStore.AppendLog(ctx, domain.NewReviewLog(record, before, rating, now)); err != nil {
			if errors.Is(err, store.ErrReviewItemNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetReviewStats implements ReviewService.GetReviewStats.
func (s *reviewServiceImpl) GetReviewStats(ctx context.Context, ownerID uuid.UUID) (*domain.ReviewStats, error) {
	stats, err := s.reviewStore.Stats(ctx, ownerID, s.now())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate review stats",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewGetReviewStatsError("failed to aggregate review stats", err)
	}
	return stats, nil
}
