package ledger

import (
	"time"

	"github.com/digistore/backend/internal/domain/ledger"
)

// InventoryRecordResponse is the read model for one variant's stock counter
type InventoryRecordResponse struct {
	ID        string    `json:"id"`
	VariantID string    `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToInventoryRecordResponse converts a domain record to its response form
func ToInventoryRecordResponse(record *ledger.InventoryRecord) InventoryRecordResponse {
	return InventoryRecordResponse{
		ID:        record.ID.String(),
		VariantID: record.VariantID.String(),
		Quantity:  record.Quantity,
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// AdjustInventoryRequest is an administrative correction. Exactly one
// of NewQuantity or Delta must be set.
type AdjustInventoryRequest struct {
	NewQuantity *int64 `json:"new_quantity,omitempty"`
	Delta       *int64 `json:"delta,omitempty"`
	Reason      string `json:"reason"`
}

// AdjustInventoryResponse reports the applied correction
type AdjustInventoryResponse struct {
	Record       InventoryRecordResponse `json:"record"`
	AppliedDelta int64                   `json:"applied_delta"`
}
