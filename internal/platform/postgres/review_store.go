package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

const reviewColumns = `
	item_id, owner_id, item_key, payload,
	state, stability, difficulty, elapsed_days, scheduled_days, reps, lapses, last_review,
	due_at, created_at, updated_at`

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db *sql.DB, logger *slog.Logger) *PostgresReviewStore {
	// Validate inputs
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		sqlDB:  s.sqlDB,
		logger: s.logger,
	}
}

// DB implements store.ReviewStore.DB
func (s *PostgresReviewStore) DB() *sql.DB {
	return s.sqlDB
}

// Create implements store.ReviewStore.Create
func (s *PostgresReviewStore) Create(ctx context.Context, record *domain.ReviewRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("review record validation failed during creation",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_cards (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	card := record.Card
	_, err := s.db.ExecContext(ctx, query,
		record.ItemID,
		record.OwnerID,
		record.ItemKey,
		nullableJSON(record.Payload),
		card.State.String(),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		nullableTime(card.LastReview),
		record.DueAt.UTC(),
		record.CreatedAt.UTC(),
		record.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("review item already exists",
				slog.String("item_id", record.ItemID.String()),
				slog.String("owner_id", record.OwnerID.String()))
			return MapUniqueViolation(err, "review item", "", store.ErrReviewItemExists)
		}
		log.Error("failed to insert review item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	log.Debug("review item created",
		slog.String("item_id", record.ItemID.String()),
		slog.String("owner_id", record.OwnerID.String()))
	return nil
}

// Get implements store.ReviewStore.Get
func (s *PostgresReviewStore) Get(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_cards WHERE item_id = $1`
	return s.getOne(ctx, query, itemID)
}

// GetForUpdate implements store.ReviewStore.GetForUpdate
// The row stays locked until the surrounding transaction commits or rolls back.
func (s *PostgresReviewStore) GetForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_cards WHERE item_id = $1 FOR UPDATE`
	return s.getOne(ctx, query, itemID)
}

func (s *PostgresReviewStore) getOne(ctx context.Context, query string, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	record, err := scanReviewRecord(s.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review item not found", slog.String("item_id", itemID.String()))
			return nil, store.ErrReviewItemNotFound
		}
		log.Error("failed to get review item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	return record, nil
}

// Update implements store.ReviewStore.Update
func (s *PostgresReviewStore) Update(ctx context.Context, record *domain.ReviewRecord, expectedReps int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE review_cards
		SET state = $2, stability = $3, difficulty = $4, elapsed_days = $5,
			scheduled_days = $6, reps = $7, lapses = $8, last_review = $9,
			due_at = $10, updated_at = $11
		WHERE item_id = $1 AND reps = $12
	`

	card := record.Card
	result, err := s.db.ExecContext(ctx, query,
		record.ItemID,
		card.State.String(),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		nullableTime(card.LastReview),
		record.DueAt.UTC(),
		record.UpdatedAt.UTC(),
		expectedReps,
	)
	if err != nil {
		log.Error("failed to update review item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "review item"); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.conflictOrNotFound(ctx, record.ItemID)
	}

	return nil
}

// conflictOrNotFound tells a vanished row from one whose reps moved on.
func (s *PostgresReviewStore) conflictOrNotFound(ctx context.Context, itemID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM review_cards WHERE item_id = $1)`, itemID,
	).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrReviewItemNotFound
	}
	return store.ErrConflict
}

// Delete implements store.ReviewStore.Delete
// Review logs are removed by the ON DELETE CASCADE constraint.
func (s *PostgresReviewStore) Delete(ctx context.Context, itemID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM review_cards WHERE item_id = $1`, itemID)
	if err != nil {
		log.Error("failed to delete review item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "review item"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrReviewItemNotFound
		}
		return err
	}

	log.Debug("review item deleted", slog.String("item_id", itemID.String()))
	return nil
}

// ListDue implements store.ReviewStore.ListDue
func (s *PostgresReviewStore) ListDue(
	ctx context.Context,
	ownerID uuid.UUID,
	now time.Time,
) ([]*domain.ReviewRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewColumns + `
		FROM review_cards
		WHERE owner_id = $1 AND due_at <= $2
		ORDER BY due_at ASC, item_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, now.UTC())
	if err != nil {
		log.Error("failed to query due review items",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*domain.ReviewRecord, 0)
	for rows.Next() {
		record, err := scanReviewRecord(rows)
		if err != nil {
			return nil, MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}

// Stats implements store.ReviewStore.Stats
func (s *PostgresReviewStore) Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*domain.ReviewStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE due_at <= $2),
			COUNT(*),
			MIN(due_at)
		FROM review_cards
		WHERE owner_id = $1
	`

	var (
		stats  domain.ReviewStats
		nextAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, ownerID, now.UTC()).
		Scan(&stats.DueCount, &stats.TotalItems, &nextAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate review stats",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}

	if nextAt.Valid {
		t := nextAt.Time.UTC()
		stats.NextReviewAt = &t
	}
	return &stats, nil
}

// AppendLog implements store.ReviewStore.AppendLog
func (s *PostgresReviewStore) AppendLog(ctx context.Context, entry *domain.ReviewLog) error {
	query := `
		INSERT INTO review_logs (
			id, item_id, owner_id, rating, state_before, state_after,
			elapsed_days, scheduled_days, reviewed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ItemID,
		entry.OwnerID,
		int(entry.Rating),
		entry.StateBefore.String(),
		entry.StateAfter.String(),
		entry.ElapsedDays,
		entry.ScheduledDays,
		entry.ReviewedAt.UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("item_id", entry.ItemID.String()))
		if IsForeignKeyViolation(err) {
			return store.ErrReviewItemNotFound
		}
		return MapError(err)
	}
	return nil
}

// ListLogs implements store.ReviewStore.ListLogs
func (s *PostgresReviewStore) ListLogs(ctx context.Context, itemID uuid.UUID) ([]*domain.ReviewLog, error) {
	query := `
		SELECT id, item_id, owner_id, rating, state_before, state_after,
			elapsed_days, scheduled_days, reviewed_at
		FROM review_logs
		WHERE item_id = $1
		ORDER BY reviewed_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]*domain.ReviewLog, 0)
	for rows.Next() {
		var (
			entry         domain.ReviewLog
			rating        int
			before, after string
		)
		if err := rows.Scan(
			&entry.ID, &entry.ItemID, &entry.OwnerID, &rating, &before, &after,
			&entry.ElapsedDays, &entry.ScheduledDays, &entry.ReviewedAt,
		); err != nil {
			return nil, MapError(err)
		}
		entry.Rating = srs.Rating(rating)
		if entry.StateBefore, err = srs.ParseState(before); err != nil {
			return nil, err
		}
		if entry.StateAfter, err = srs.ParseState(after); err != nil {
			return nil, err
		}
		entry.ReviewedAt = entry.ReviewedAt.UTC()
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewRecord(row rowScanner) (*domain.ReviewRecord, error) {
	var (
		record     domain.ReviewRecord
		payload    []byte
		state      string
		lastReview sql.NullTime
	)

	err := row.Scan(
		&record.ItemID,
		&record.OwnerID,
		&record.ItemKey,
		&payload,
		&state,
		&record.Card.Stability,
		&record.Card.Difficulty,
		&record.Card.ElapsedDays,
		&record.Card.ScheduledDays,
		&record.Card.Reps,
		&record.Card.Lapses,
		&lastReview,
		&record.DueAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if record.Card.State, err = srs.ParseState(state); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		record.Payload = payload
	}
	if lastReview.Valid {
		t := lastReview.Time.UTC()
		record.Card.LastReview = &t
	}
	record.DueAt = record.DueAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()

	return &record, nil
}

func nullableJSON(payload []byte) any {
	if len(payload) == 0 {
		return nil
	}
	return string(payload)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
