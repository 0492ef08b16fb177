// Package catalog is the read-only boundary to the catalog subsystem.
// The ledger references variants by id; display metadata comes from here.
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Variant identifies a sellable product configuration
type Variant struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	AttributeSummary string    `json:"attribute_summary"`
}

// VariantResolver resolves display metadata for a variant. Implemented
// by the catalog subsystem; used only for annotation, never for ledger
// logic.
type VariantResolver interface {
	// ResolveVariant returns shared.ErrNotFound for unknown variants
	ResolveVariant(ctx context.Context, variantID uuid.UUID) (*Variant, error)
}
