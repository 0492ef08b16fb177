package exposure

import (
	"time"

	"github.com/digistore/backend/internal/domain/catalog"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/warranty"
	"github.com/shopspring/decimal"
)

// StockLevel is the storefront-facing classification of a quantity
type StockLevel string

const (
	StockLevelOut StockLevel = "Out of Stock"
	StockLevelLow StockLevel = "Low Stock"
	StockLevelIn  StockLevel = "In Stock"
)

// StockClassification pairs a raw quantity with its display level
type StockClassification struct {
	VariantID string     `json:"variant_id"`
	Quantity  int64      `json:"quantity"`
	Level     StockLevel `json:"level"`
}

// PendingImportResponse is one incoming line for a variant: a batch
// that has been ordered from the supplier but not yet completed.
type PendingImportResponse struct {
	BatchID      string               `json:"batch_id"`
	SupplierID   string               `json:"supplier_id"`
	Reference    string               `json:"reference,omitempty"`
	ImportStatus imports.ImportStatus `json:"import_status"`
	Quantity     int64                `json:"quantity"`
	NetPrice     decimal.Decimal      `json:"net_price"`
}

// WarrantyResponse is the derived warranty state for a variant
type WarrantyResponse struct {
	VariantID string          `json:"variant_id"`
	BatchID   string          `json:"batch_id,omitempty"` // Batch whose terms apply; empty when unknown
	Result    warranty.Result `json:"result"`
}

// HistoryEntryResponse is one completed purchase of a variant,
// annotated with warranty state at read time.
type HistoryEntryResponse struct {
	BatchID     string          `json:"batch_id"`
	SupplierID  string          `json:"supplier_id"`
	Reference   string          `json:"reference,omitempty"`
	Quantity    int64           `json:"quantity"`
	NetPrice    decimal.Decimal `json:"net_price"`
	Notes       string          `json:"notes,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Warranty    warranty.Result `json:"warranty"`
}

// HistoryResponse is the full purchase history of a variant
type HistoryResponse struct {
	VariantID string                 `json:"variant_id"`
	Variant   *catalog.Variant       `json:"variant,omitempty"` // nil when the catalog cannot resolve it
	Entries   []HistoryEntryResponse `json:"entries"`
}
