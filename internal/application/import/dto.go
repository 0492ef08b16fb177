package importapp

import (
	"time"

	"github.com/digistore/backend/internal/domain/imports"
	"github.com/shopspring/decimal"
)

// CreateImportBatchItemRequest is one line of a new import batch
type CreateImportBatchItemRequest struct {
	VariantID          string          `json:"variant_id"`
	Quantity           int64           `json:"quantity"`
	NetPrice           decimal.Decimal `json:"net_price"`
	WarrantyPeriodDays *int            `json:"warranty_period_days,omitempty"`
	WarrantyExpiry     *time.Time      `json:"warranty_expiry,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// CreateImportBatchRequest records a supplier delivery
type CreateImportBatchRequest struct {
	SupplierID  string                         `json:"supplier_id"`
	Reference   string                         `json:"reference,omitempty"`
	TotalAmount *decimal.Decimal               `json:"total_amount,omitempty"` // Overrides the computed sum when present
	Items       []CreateImportBatchItemRequest `json:"items"`
}

// ImportBatchItemResponse is the read model for one batch line
type ImportBatchItemResponse struct {
	ID                 string          `json:"id"`
	VariantID          string          `json:"variant_id"`
	InventoryID        string          `json:"inventory_id"`
	Quantity           int64           `json:"quantity"`
	NetPrice           decimal.Decimal `json:"net_price"`
	WarrantyPeriodDays *int            `json:"warranty_period_days,omitempty"`
	WarrantyExpiry     *time.Time      `json:"warranty_expiry,omitempty"`
	Notes              string          `json:"notes,omitempty"`
}

// ImportBatchResponse is the read model for an import batch
type ImportBatchResponse struct {
	ID            string                    `json:"id"`
	SupplierID    string                    `json:"supplier_id"`
	UserID        string                    `json:"user_id"`
	Reference     string                    `json:"reference,omitempty"`
	TotalAmount   decimal.Decimal           `json:"total_amount"`
	ImportStatus  imports.ImportStatus      `json:"import_status"`
	PaymentStatus imports.PaymentStatus     `json:"payment_status"`
	Items         []ImportBatchItemResponse `json:"items"`
	CompletedAt   *time.Time                `json:"completed_at,omitempty"`
	CancelledAt   *time.Time                `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
	Version       int                       `json:"version"`
}

// ToImportBatchItemResponse converts a domain item to its response form
func ToImportBatchItemResponse(item *imports.ImportBatchItem) ImportBatchItemResponse {
	return ImportBatchItemResponse{
		ID:                 item.ID.String(),
		VariantID:          item.VariantID.String(),
		InventoryID:        item.InventoryID.String(),
		Quantity:           item.Quantity,
		NetPrice:           item.NetPrice,
		WarrantyPeriodDays: item.WarrantyPeriodDays,
		WarrantyExpiry:     item.WarrantyExpiry,
		Notes:              item.Notes,
	}
}

// ToImportBatchResponse converts a domain batch to its response form
func ToImportBatchResponse(batch *imports.ImportBatch) ImportBatchResponse {
	items := make([]ImportBatchItemResponse, 0, len(batch.Items))
	for i := range batch.Items {
		items = append(items, ToImportBatchItemResponse(&batch.Items[i]))
	}
	return ImportBatchResponse{
		ID:            batch.ID.String(),
		SupplierID:    batch.SupplierID.String(),
		UserID:        batch.UserID.String(),
		Reference:     batch.Reference,
		TotalAmount:   batch.TotalAmount,
		ImportStatus:  batch.ImportStatus,
		PaymentStatus: batch.PaymentStatus,
		Items:         items,
		CompletedAt:   batch.CompletedAt,
		CancelledAt:   batch.CancelledAt,
		CreatedAt:     batch.CreatedAt,
		UpdatedAt:     batch.UpdatedAt,
		Version:       batch.Version,
	}
}

// BulkTransitionOutcome reports the result of one batch within a bulk
// status change. Error is empty on success.
type BulkTransitionOutcome struct {
	BatchID string `json:"batch_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
