package fulfillment

import (
	"context"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the persistence contract for orders
type OrderRepository interface {
	// FindByID finds an order by ID, items included.
	// Returns shared.ErrNotFound when no such order exists.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDs finds multiple orders by ID, items included
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindByUser lists a customer's orders
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindAll lists orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order together with its items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock persists status changes with an optimistic version
	// check. Returns shared.ErrConcurrencyConflict on version mismatch.
	SaveWithLock(ctx context.Context, order *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
