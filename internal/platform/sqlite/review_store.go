package sqlite

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

// SQLiteReviewStore implements the store.ReviewStore interface on SQLite.
type SQLiteReviewStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

// NewSQLiteReviewStore creates a SQLite implementation of the ReviewStore interface.
// db should come from Open so that the schema and connection pragmas are in place.
func NewSQLiteReviewStore(db *sql.DB, logger *slog.Logger) *SQLiteReviewStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteReviewStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "review_store"), slog.String("driver", DriverName)),
	}
}

var _ store.ReviewStore = (*SQLiteReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *SQLiteReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &SQLiteReviewStore{
		db:     tx,
		sqlDB:  s.sqlDB,
		logger: s.logger,
	}
}

// DB implements store.ReviewStore.DB
func (s *SQLiteReviewStore) DB() *sql.DB {
	return s.sqlDB
}

// Create implements store.ReviewStore.Create
func (s *SQLiteReviewStore) Create(ctx context.Context, record *domain.ReviewRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("review record validation failed during creation",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_cards (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	card := record.Card
	_, err := s.db.ExecContext(ctx, query,
		record.ItemID.String(),
		record.OwnerID.String(),
		record.ItemKey,
		nullableJSON(record.Payload),
		card.State.String(),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		nullableMicros(card.LastReview),
		toMicros(record.DueAt),
		toMicros(record.CreatedAt),
		toMicros(record.UpdatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("review item already exists",
				slog.String("item_id", record.ItemID.String()),
				slog.String("owner_id", record.OwnerID.String()))
			return fmt.Errorf("%w: %v", store.ErrReviewItemExists, err)
		}
		log.Error("failed to insert review item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return store.NewStoreError("review_item", "create", "insert failed", MapError(err))
	}

	log.Debug("review item created",
		slog.String("item_id", record.ItemID.String()),
		slog.String("owner_id", record.OwnerID.String()))
	return nil
}

// Get implements store.ReviewStore.Get
func (s *SQLiteReviewStore) Get(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	return s.getOne(ctx, itemID)
}

// GetForUpdate implements store.ReviewStore.GetForUpdate
// SQLite has no row locks; the single-connection pool serializes writers.
func (s *SQLiteReviewStore) GetForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	return s.getOne(ctx, itemID)
}

func (s *SQLiteReviewStore) getOne(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + reviewColumns + ` FROM review_cards WHERE item_id = ?`
	record, err := scanReviewRecord(s.db.QueryRowContext(ctx, query, itemID.String()))
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
func (s *SQLiteReviewStore) Update(ctx context.Context, record *domain.ReviewRecord, expectedReps int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE review_cards
		SET state = ?, stability = ?, difficulty = ?, elapsed_days = ?,
			scheduled_days = ?, reps = ?, lapses = ?, last_review = ?,
			due_at = ?, updated_at = ?
		WHERE item_id = ? AND reps = ?
	`

	card := record.Card
	result, err := s.db.ExecContext(ctx, query,
		card.State.String(),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		nullableMicros(card.LastReview),
		toMicros(record.DueAt),
		toMicros(record.UpdatedAt),
		record.ItemID.String(),
		expectedReps,
	)
	if err != nil {
		log.Error("failed to update review item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return s.conflictOrNotFound(ctx, record.ItemID)
	}
	return nil
}

func (s *SQLiteReviewStore) conflictOrNotFound(ctx context.Context, itemID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM review_cards WHERE item_id = ?)`, itemID.String(),
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
func (s *SQLiteReviewStore) Delete(ctx context.Context, itemID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM review_cards WHERE item_id = ?`, itemID.String())
	if err != nil {
		log.Error("failed to delete review item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrReviewItemNotFound
	}

	log.Debug("review item deleted", slog.String("item_id", itemID.String()))
	return nil
}

// ListDue implements store.ReviewStore.ListDue
func (s *SQLiteReviewStore) ListDue(
	ctx context.Context,
	ownerID uuid.UUID,
	now time.Time,
) ([]*domain.ReviewRecord, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM review_cards
		WHERE owner_id = ? AND due_at <= ?
		ORDER BY due_at ASC, item_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID.String(), toMicros(now))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query due review items",
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
func (s *SQLiteReviewStore) Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*domain.ReviewStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN due_at <= ? THEN 1 ELSE 0 END), 0),
			COUNT(*),
			MIN(due_at)
		FROM review_cards
		WHERE owner_id = ?
	`

	var (
		stats  domain.ReviewStats
		nextAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, toMicros(now), ownerID.String()).
		Scan(&stats.DueCount, &stats.TotalItems, &nextAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate review stats",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}

	if nextAt.Valid {
		t := fromMicros(nextAt.Int64)
		stats.NextReviewAt = &t
	}
	return &stats, nil
}

// AppendLog implements store.ReviewStore.AppendLog
func (s *SQLiteReviewStore) AppendLog(ctx context.Context, entry *domain.ReviewLog) error {
	query := `
		INSERT INTO review_logs (
			id, item_id, owner_id, rating, state_before, state_after,
			elapsed_days, scheduled_days, reviewed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.ItemID.String(),
		entry.OwnerID.String(),
		int(entry.Rating),
		entry.StateBefore.String(),
		entry.StateAfter.String(),
		entry.ElapsedDays,
		entry.ScheduledDays,
		toMicros(entry.ReviewedAt),
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
func (s *SQLiteReviewStore) ListLogs(ctx context.Context, itemID uuid.UUID) ([]*domain.ReviewLog, error) {
	query := `
		SELECT id, item_id, owner_id, rating, state_before, state_after,
			elapsed_days, scheduled_days, reviewed_at
		FROM review_logs
		WHERE item_id = ?
		ORDER BY reviewed_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, itemID.String())
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]*domain.ReviewLog, 0)
	for rows.Next() {
		var (
			entry         domain.ReviewLog
			id, item, own string
			rating        int
			before, after string
			reviewedAt    int64
		)
		if err := rows.Scan(
			&id, &item, &own, &rating, &before, &after,
			&entry.ElapsedDays, &entry.ScheduledDays, &reviewedAt,
		); err != nil {
			return nil, MapError(err)
		}
		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if entry.ItemID, err = uuid.Parse(item); err != nil {
			return nil, err
		}
		if entry.OwnerID, err = uuid.Parse(own); err != nil {
			return nil, err
		}
		entry.Rating = srs.Rating(rating)
		if entry.StateBefore, err = srs.ParseState(before); err != nil {
			return nil, err
		}
		if entry.StateAfter, err = srs.ParseState(after); err != nil {
			return nil, err
		}
		entry.ReviewedAt = fromMicros(reviewedAt)
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
		record                      domain.ReviewRecord
		itemID, ownerID, state      string
		payload                     sql.NullString
		lastReview                  sql.NullInt64
		dueAt, createdAt, updatedAt int64
	)

	err := row.Scan(
		&itemID,
		&ownerID,
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
		&dueAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if record.ItemID, err = uuid.Parse(itemID); err != nil {
		return nil, err
	}
	if record.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, err
	}
	if record.Card.State, err = srs.ParseState(state); err != nil {
		return nil, err
	}
	if payload.Valid && payload.String != "" {
		record.Payload = []byte(payload.String)
	}
	if lastReview.Valid {
		t := fromMicros(lastReview.Int64)
		record.Card.LastReview = &t
	}
	record.DueAt = fromMicros(dueAt)
	record.CreatedAt = fromMicros(createdAt)
	record.UpdatedAt = fromMicros(updatedAt)

	return &record, nil
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func nullableMicros(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMicros(*t)
}

func nullableJSON(payload []byte) any {
	if len(payload) == 0 {
		return nil
	}
	return string(payload)
}
