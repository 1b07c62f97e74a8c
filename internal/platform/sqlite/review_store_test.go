package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 123456000, time.UTC)

func newTestStore(t *testing.T) *SQLiteReviewStore {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteReviewStore(db, nil)
}

func newRecord(t *testing.T, ownerID uuid.UUID, key string, dueAt time.Time) *domain.ReviewRecord {
	t.Helper()
	record, err := domain.NewReviewRecord(ownerID, key, json.RawMessage(`{"front":"`+key+`"}`), testNow)
	require.NoError(t, err)
	record.DueAt = dueAt
	return record
}

func reviewed(record *domain.ReviewRecord, state srs.State, reps int, lastReview time.Time) {
	record.Card = srs.Card{
		State:         state,
		Stability:     3.2,
		Difficulty:    5.5,
		ElapsedDays:   1.5,
		ScheduledDays: 3,
		Reps:          reps,
		Lapses:        1,
		LastReview:    &lastReview,
	}
}

func TestNewSQLiteReviewStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { NewSQLiteReviewStore(nil, nil) })
}

func TestOpen_ReappliesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, schema)
	assert.NoError(t, err)
}

func TestSQLiteReviewStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ownerID := uuid.New()

	record := newRecord(t, ownerID, "item-1", testNow)
	reviewed(record, srs.Review, 4, testNow.Add(-72*time.Hour))
	require.NoError(t, s.Create(ctx, record))

	got, err := s.Get(ctx, record.ItemID)
	require.NoError(t, err)
	assert.Equal(t, record.ItemID, got.ItemID)
	assert.Equal(t, ownerID, got.OwnerID)
	assert.Equal(t, "item-1", got.ItemKey)
	assert.JSONEq(t, string(record.Payload), string(got.Payload))
	assert.Equal(t, record.Card, got.Card)
	assert.True(t, record.DueAt.Equal(got.DueAt))
	assert.Equal(t, time.UTC, got.DueAt.Location())
	assert.True(t, record.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteReviewStore_CreateWithoutPayload(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	record := newRecord(t, uuid.New(), "bare", testNow)
	record.Payload = nil
	require.NoError(t, s.Create(ctx, record))

	got, err := s.Get(ctx, record.ItemID)
	require.NoError(t, err)
	assert.Nil(t, got.Payload)
	assert.Nil(t, got.Card.LastReview)
	assert.Equal(t, srs.New, got.Card.State)
}

func TestSQLiteReviewStore_CreateErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ownerID := uuid.New()

	record := newRecord(t, ownerID, "dup", testNow)
	require.NoError(t, s.Create(ctx, record))

	t.Run("same item key for owner", func(t *testing.T) {
		other := newRecord(t, ownerID, "dup", testNow)
		err := s.Create(ctx, other)
		assert.ErrorIs(t, err, store.ErrReviewItemExists)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("same item key for another owner", func(t *testing.T) {
		assert.NoError(t, s.Create(ctx, newRecord(t, uuid.New(), "dup", testNow)))
	})

	t.Run("same item id", func(t *testing.T) {
		other := newRecord(t, ownerID, "other", testNow)
		other.ItemID = record.ItemID
		assert.ErrorIs(t, s.Create(ctx, other), store.ErrReviewItemExists)
	})

	t.Run("invalid record", func(t *testing.T) {
		bad := newRecord(t, ownerID, "bad", testNow)
		bad.Payload = json.RawMessage(`{not json`)
		err := s.Create(ctx, bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})
}

func TestSQLiteReviewStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrReviewItemNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestSQLiteReviewStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	record := newRecord(t, uuid.New(), "u", testNow)
	require.NoError(t, s.Create(ctx, record))

	t.Run("applies when reps match", func(t *testing.T) {
		updated := *record
		reviewed(&updated, srs.Learning, 1, testNow)
		updated.DueAt = testNow.Add(10 * time.Minute)
		updated.UpdatedAt = testNow.Add(time.Second)
		require.NoError(t, s.Update(ctx, &updated, 0))

		got, err := s.Get(ctx, record.ItemID)
		require.NoError(t, err)
		assert.Equal(t, updated.Card, got.Card)
		assert.True(t, updated.DueAt.Equal(got.DueAt))
		assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("conflicts when reps moved on", func(t *testing.T) {
		stale := *record
		reviewed(&stale, srs.Review, 1, testNow)
		assert.ErrorIs(t, s.Update(ctx, &stale, 0), store.ErrConflict)
	})

	t.Run("missing item", func(t *testing.T) {
		missing := newRecord(t, uuid.New(), "missing", testNow)
		assert.ErrorIs(t, s.Update(ctx, missing, 0), store.ErrReviewItemNotFound)
	})
}

func TestSQLiteReviewStore_ListDue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ownerID := uuid.New()

	late := newRecord(t, ownerID, "late", testNow.Add(-time.Minute))
	early := newRecord(t, ownerID, "early", testNow.Add(-time.Hour))
	exact := newRecord(t, ownerID, "exact", testNow)
	future := newRecord(t, ownerID, "future", testNow.Add(time.Microsecond))
	foreign := newRecord(t, uuid.New(), "foreign", testNow.Add(-2*time.Hour))

	// Two items due at the same instant are ordered by item id.
	tieA := newRecord(t, ownerID, "tie-a", testNow.Add(-time.Minute))
	tieA.ItemID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	tieB := newRecord(t, ownerID, "tie-b", testNow.Add(-time.Minute))
	tieB.ItemID = uuid.MustParse("ffffffff-0000-4000-8000-000000000001")

	for _, r := range []*domain.ReviewRecord{late, early, exact, future, foreign, tieB, tieA} {
		require.NoError(t, s.Create(ctx, r))
	}

	due, err := s.ListDue(ctx, ownerID, testNow)
	require.NoError(t, err)

	keys := make([]string, 0, len(due))
	for _, r := range due {
		keys = append(keys, r.ItemKey)
	}
	require.Len(t, keys, 5)
	assert.Equal(t, "early", keys[0])
	assert.Equal(t, "exact", keys[4])
	assert.ElementsMatch(t, []string{"late", "tie-a", "tie-b"}, keys[1:4])
	assert.Less(t, indexOf(keys, "tie-a"), indexOf(keys, "tie-b"))

	empty, err := s.ListDue(ctx, uuid.New(), testNow)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func TestSQLiteReviewStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ownerID := uuid.New()

	stats, err := s.Stats(ctx, ownerID, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStats{}, *stats)

	for i, offset := range []time.Duration{-time.Hour, 0, 2 * time.Hour, 48 * time.Hour} {
		key := string(rune('a' + i))
		require.NoError(t, s.Create(ctx, newRecord(t, ownerID, key, testNow.Add(offset))))
	}
	require.NoError(t, s.Create(ctx, newRecord(t, uuid.New(), "other", testNow.Add(-48*time.Hour))))

	stats, err = s.Stats(ctx, ownerID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DueCount)
	assert.Equal(t, 4, stats.TotalItems)
	require.NotNil(t, stats.NextReviewAt)
	assert.True(t, testNow.Add(-time.Hour).Equal(*stats.NextReviewAt))
}

func TestSQLiteReviewStore_Logs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	record := newRecord(t, uuid.New(), "logged", testNow)
	require.NoError(t, s.Create(ctx, record))

	reviewed(record, srs.Learning, 1, testNow)
	first := domain.NewReviewLog(record, srs.New, srs.Again, testNow)
	second := domain.NewReviewLog(record, srs.Learning, srs.Again, testNow)
	require.NoError(t, s.AppendLog(ctx, first))
	require.NoError(t, s.AppendLog(ctx, second))

	logs, err := s.ListLogs(ctx, record.ItemID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, first.ID, logs[0].ID)
	assert.Equal(t, srs.New, logs[0].StateBefore)
	assert.Equal(t, srs.Learning, logs[0].StateAfter)
	assert.Equal(t, srs.Again, logs[0].Rating)
	assert.Equal(t, second.ID, logs[1].ID)

	orphan := domain.NewReviewLog(newRecord(t, uuid.New(), "orphan", testNow), srs.New, srs.Good, testNow)
	assert.ErrorIs(t, s.AppendLog(ctx, orphan), store.ErrReviewItemNotFound)

	require.NoError(t, s.Delete(ctx, record.ItemID))
	logs, err = s.ListLogs(ctx, record.ItemID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.ErrorIs(t, s.Delete(ctx, record.ItemID), store.ErrReviewItemNotFound)
}

func TestSQLiteReviewStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	record := newRecord(t, uuid.New(), "tx", testNow)
	require.NoError(t, s.Create(ctx, record))

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.WithTx(tx)
		locked, err := txStore.GetForUpdate(ctx, record.ItemID)
		if err != nil {
			return err
		}
		reviewed(locked, srs.Review, 1, testNow)
		if err := txStore.Update(ctx, locked, 0); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, record.ItemID)
	require.NoError(t, err)
	assert.Equal(t, srs.New, got.Card.State)
	assert.Equal(t, 0, got.Card.Reps)
}
