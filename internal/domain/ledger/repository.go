package ledger

import (
	"context"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryRecordRepository defines the persistence contract for inventory records
type InventoryRecordRepository interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByVariantID finds the record for a variant.
	// Returns shared.ErrNotFound when the variant has no record yet.
	FindByVariantID(ctx context.Context, variantID uuid.UUID) (*InventoryRecord, error)

	// FindByVariantIDs finds records for multiple variants.
	// Variants without a record are simply absent from the result.
	FindByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]InventoryRecord, error)

	// GetOrCreate returns the record for a variant, creating it at
	// quantity zero if absent. Creation races are resolved with an
	// ON CONFLICT DO NOTHING insert followed by a re-read.
	GetOrCreate(ctx context.Context, variantID uuid.UUID) (*InventoryRecord, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock persists quantity changes with an optimistic version
	// check. Returns shared.ErrConcurrencyConflict when another
	// transaction modified the record since it was loaded.
	SaveWithLock(ctx context.Context, record *InventoryRecord) error

	// FindAll lists records with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryRecord, error)

	// Count counts records matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
