package ledger

import (
	"fmt"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryRecord holds the stock counter for a single sellable variant.
// It is the aggregate root for all quantity mutations.
// Invariant: Quantity never goes below zero. Decrement refuses to
// overdraw; only AdjustClamped may silently stop at the floor.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_variant"`
	Quantity  int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// NewInventoryRecord creates a new inventory record for a variant, starting at zero
func NewInventoryRecord(variantID uuid.UUID) (*InventoryRecord, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	return &InventoryRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VariantID:         variantID,
		Quantity:          0,
	}, nil
}

// Increment adds stock to the record. Amount must be positive.
func (r *InventoryRecord) Increment(amount int64) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Increment amount must be positive")
	}

	r.Quantity += amount
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Decrement removes stock from the record. Amount must be positive.
// Fails with InsufficientStockError when the record cannot cover the
// requested amount; the quantity is left untouched so the caller can
// abort the enclosing transaction.
func (r *InventoryRecord) Decrement(amount int64) error {
	if amount <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement amount must be positive")
	}
	if r.Quantity-amount < 0 {
		return &InsufficientStockError{
			VariantID: r.VariantID,
			Available: r.Quantity,
			Requested: amount,
		}
	}

	r.Quantity -= amount
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// AdjustClamped applies a signed delta, clamping the floor to zero
// instead of failing. It returns the delta actually applied.
// Used for manual administrative corrections only, never for order or
// import flows.
func (r *InventoryRecord) AdjustClamped(delta int64) int64 {
	applied := delta
	if r.Quantity+delta < 0 {
		applied = -r.Quantity
	}

	r.Quantity += applied
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return applied
}

// InsufficientStockError reports a decrement that would drive the
// quantity negative. It carries the per-variant shortfall so callers
// can surface which line of a multi-item operation failed.
type InsufficientStockError struct {
	VariantID uuid.UUID
	Available int64
	Requested int64
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: available %d, requested %d",
		e.VariantID, e.Available, e.Requested)
}

// Code returns the domain error code for HTTP mapping
func (e *InsufficientStockError) Code() string {
	return "INSUFFICIENT_STOCK"
}

// Is allows errors.Is matching against shared.ErrInsufficientStock
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}
