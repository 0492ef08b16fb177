package imports

import (
	"context"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportBatchRepository defines the persistence contract for import batches
type ImportBatchRepository interface {
	// FindByID finds a batch by ID, items included.
	// Returns shared.ErrNotFound when no such batch exists.
	FindByID(ctx context.Context, id uuid.UUID) (*ImportBatch, error)

	// FindByIDs finds multiple batches by ID, items included
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ImportBatch, error)

	// FindAll lists batches with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]ImportBatch, error)

	// FindItemsByVariant returns items touching a variant whose parent
	// batch is in one of the given statuses, most recent completion first.
	FindItemsByVariant(ctx context.Context, variantID uuid.UUID, statuses []ImportStatus) ([]ImportBatchItemDetail, error)

	// Save creates or updates a batch together with its items
	Save(ctx context.Context, batch *ImportBatch) error

	// SaveWithLock persists status changes with an optimistic version
	// check. Returns shared.ErrConcurrencyConflict on version mismatch.
	SaveWithLock(ctx context.Context, batch *ImportBatch) error

	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// ImportBatchItemDetail is a read model joining an item with the batch
// fields the exposure queries annotate it with.
type ImportBatchItemDetail struct {
	Item         ImportBatchItem
	SupplierID   uuid.UUID
	UserID       uuid.UUID
	Reference    string
	ImportStatus ImportStatus
	CompletedAt  *time.Time // nil until the batch completes
}
