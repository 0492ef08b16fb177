// Package exposure serves the storefront's read-side queries: stock
// level classification, pending deliveries, warranty state and purchase
// history. It never mutates the ledger.
package exposure

import (
	"context"
	"errors"
	"time"

	"github.com/digistore/backend/internal/domain/catalog"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/domain/warranty"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is used when the configuration leaves the
// threshold unset.
const DefaultLowStockThreshold = 5

// ExposureService answers read queries over the ledger and import
// history. The variant resolver is optional; without it history entries
// simply go unannotated.
type ExposureService struct {
	recordRepo ledger.InventoryRecordRepository
	batchRepo  imports.ImportBatchRepository
	resolver   catalog.VariantResolver
	threshold  int64
	logger     *zap.Logger
}

// NewExposureService creates a new ExposureService. A non-positive
// threshold falls back to DefaultLowStockThreshold.
func NewExposureService(recordRepo ledger.InventoryRecordRepository, batchRepo imports.ImportBatchRepository, resolver catalog.VariantResolver, threshold int64, logger *zap.Logger) *ExposureService {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExposureService{
		recordRepo: recordRepo,
		batchRepo:  batchRepo,
		resolver:   resolver,
		threshold:  threshold,
		logger:     logger,
	}
}

// ClassifyQuantity maps a raw quantity onto the storefront display
// level. Zero is out of stock; anything strictly below the threshold
// is low, and a quantity at the threshold already counts as in stock.
func (s *ExposureService) ClassifyQuantity(quantity int64) StockLevel {
	switch {
	case quantity <= 0:
		return StockLevelOut
	case quantity < s.threshold:
		return StockLevelLow
	default:
		return StockLevelIn
	}
}

// ClassifyStock returns the stock classification for a variant. A
// variant with no inventory record classifies as out of stock.
func (s *ExposureService) ClassifyStock(ctx context.Context, variantID uuid.UUID) (*StockClassification, error) {
	record, err := s.recordRepo.FindByVariantID(ctx, variantID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	quantity := int64(0)
	if record != nil {
		quantity = record.Quantity
	}
	return &StockClassification{
		VariantID: variantID.String(),
		Quantity:  quantity,
		Level:     s.ClassifyQuantity(quantity),
	}, nil
}

// ClassifyStockBulk classifies several variants at once. Variants
// without a record classify as out of stock.
func (s *ExposureService) ClassifyStockBulk(ctx context.Context, variantIDs []uuid.UUID) ([]StockClassification, error) {
	records, err := s.recordRepo.FindByVariantIDs(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	byVariant := make(map[uuid.UUID]int64, len(records))
	for i := range records {
		byVariant[records[i].VariantID] = records[i].Quantity
	}

	result := make([]StockClassification, 0, len(variantIDs))
	for _, id := range variantIDs {
		quantity := byVariant[id]
		result = append(result, StockClassification{
			VariantID: id.String(),
			Quantity:  quantity,
			Level:     s.ClassifyQuantity(quantity),
		})
	}
	return result, nil
}

// GetPendingImportsForVariant lists incoming stock for a variant:
// lines of batches that are PENDING or PROCESSING. Draft, completed
// and cancelled batches are excluded.
func (s *ExposureService) GetPendingImportsForVariant(ctx context.Context, variantID uuid.UUID) ([]PendingImportResponse, error) {
	details, err := s.batchRepo.FindItemsByVariant(ctx, variantID,
		[]imports.ImportStatus{imports.ImportStatusPending, imports.ImportStatusProcessing})
	if err != nil {
		return nil, err
	}

	result := make([]PendingImportResponse, 0, len(details))
	for _, d := range details {
		result = append(result, PendingImportResponse{
			BatchID:      d.Item.ImportID.String(),
			SupplierID:   d.SupplierID.String(),
			Reference:    d.Reference,
			ImportStatus: d.ImportStatus,
			Quantity:     d.Item.Quantity,
			NetPrice:     d.Item.NetPrice,
		})
	}
	return result, nil
}

// GetWarrantyForVariant derives the warranty terms in effect for a
// variant at the instant now. Among completed purchases that carry
// warranty terms, the most recently completed one wins; a variant with
// no completed purchases, or none carrying warranty terms, reports
// unknown.
func (s *ExposureService) GetWarrantyForVariant(ctx context.Context, variantID uuid.UUID, now time.Time) (*WarrantyResponse, error) {
	details, err := s.batchRepo.FindItemsByVariant(ctx, variantID,
		[]imports.ImportStatus{imports.ImportStatusCompleted})
	if err != nil {
		return nil, err
	}

	// details are ordered newest completion first
	for _, d := range details {
		if d.Item.WarrantyPeriodDays == nil && d.Item.WarrantyExpiry == nil {
			continue
		}
		return &WarrantyResponse{
			VariantID: variantID.String(),
			BatchID:   d.Item.ImportID.String(),
			Result:    warranty.Evaluate(warrantyInput(d), now),
		}, nil
	}

	return &WarrantyResponse{
		VariantID: variantID.String(),
		Result:    warranty.Result{Status: warranty.StatusUnknown},
	}, nil
}

// GetHistory returns the completed purchase history of a variant,
// newest first, each entry carrying its warranty state at now.
func (s *ExposureService) GetHistory(ctx context.Context, variantID uuid.UUID, now time.Time) (*HistoryResponse, error) {
	details, err := s.batchRepo.FindItemsByVariant(ctx, variantID,
		[]imports.ImportStatus{imports.ImportStatusCompleted})
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntryResponse, 0, len(details))
	for _, d := range details {
		entries = append(entries, HistoryEntryResponse{
			BatchID:     d.Item.ImportID.String(),
			SupplierID:  d.SupplierID.String(),
			Reference:   d.Reference,
			Quantity:    d.Item.Quantity,
			NetPrice:    d.Item.NetPrice,
			Notes:       d.Item.Notes,
			CompletedAt: d.CompletedAt,
			Warranty:    warranty.Evaluate(warrantyInput(d), now),
		})
	}

	response := &HistoryResponse{
		VariantID: variantID.String(),
		Entries:   entries,
	}

	if s.resolver != nil {
		variant, err := s.resolver.ResolveVariant(ctx, variantID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		response.Variant = variant
	}

	return response, nil
}

func warrantyInput(d imports.ImportBatchItemDetail) warranty.Input {
	return warranty.Input{
		PeriodDays:     d.Item.WarrantyPeriodDays,
		ExplicitExpiry: d.Item.WarrantyExpiry,
		CompletedAt:    d.CompletedAt,
	}
}
