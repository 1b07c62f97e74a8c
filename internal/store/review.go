package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// ReviewStore defines the interface for review record persistence.
//
// Implementations store every field of the scheduler card next to the owner,
// the opaque item reference and the due time. Timestamps are returned in UTC.
type ReviewStore interface {
	// Create saves a new review record.
	// Returns ErrReviewItemExists if the item ID, or the owner and item key pair,
	// is already taken. Returns ErrInvalidEntity if the record fails validation.
	Create(ctx context.Context, record *domain.ReviewRecord) error

	// Get retrieves a review record by item ID.
	// Returns ErrReviewItemNotFound if the item does not exist.
	Get(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error)

	// GetForUpdate retrieves a review record and locks its row until the
	// surrounding transaction ends, where the backend supports row locks.
	// It MUST be called on a store returned by WithTx.
	// Returns ErrReviewItemNotFound if the item does not exist.
	GetForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.ReviewRecord, error)

	// Update persists the card, due time and UpdatedAt of record, provided the
	// stored card still has expectedReps repetitions.
	// Returns ErrConflict if the stored card changed since it was read, or
	// ErrReviewItemNotFound if the item no longer exists.
	Update(ctx context.Context, record *domain.ReviewRecord, expectedReps int) error

	// Delete removes a review record and its review logs.
	// Returns ErrReviewItemNotFound if the item does not exist.
	Delete(ctx context.Context, itemID uuid.UUID) error

	// ListDue returns the owner's records with DueAt <= now, ordered by DueAt
	// ascending and then by item ID ascending.
	ListDue(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]*domain.ReviewRecord, error)

	// Stats aggregates the owner's collection as of now.
	Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*domain.ReviewStats, error)

	// AppendLog records one applied review event.
	AppendLog(ctx context.Context, log *domain.ReviewLog) error

	// ListLogs returns the review events of an item, oldest first.
	ListLogs(ctx context.Context, itemID uuid.UUID) ([]*domain.ReviewLog, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       txStore := reviewStore.WithTx(tx)
	//       record, err := txStore.GetForUpdate(ctx, itemID)
	//       ...
	//   })
	WithTx(tx *sql.Tx) ReviewStore

	// DB returns the database handle used to begin transactions.
	DB() *sql.DB
}
