package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService exposes read access to the stock ledger plus the
// administrative clamped adjustment. Order placement and import
// completion mutate the ledger through their own coordinators; this
// service never decrements on behalf of a sale.
type LedgerService struct {
	recordRepo ledger.InventoryRecordRepository
	scope      TransactionScope
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(recordRepo ledger.InventoryRecordRepository, scope TransactionScope, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		recordRepo: recordRepo,
		scope:      scope,
		logger:     logger,
	}
}

// GetQuantity returns the current stock for a variant. A variant with
// no inventory record is reported as zero, not as an error.
func (s *LedgerService) GetQuantity(ctx context.Context, variantID uuid.UUID) (int64, error) {
	record, err := s.recordRepo.FindByVariantID(ctx, variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.Quantity, nil
}

// GetRecord returns the full record for a variant, or ErrNotFound
func (s *LedgerService) GetRecord(ctx context.Context, variantID uuid.UUID) (*InventoryRecordResponse, error) {
	record, err := s.recordRepo.FindByVariantID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	response := ToInventoryRecordResponse(record)
	return &response, nil
}

// List returns inventory records with pagination
func (s *LedgerService) List(ctx context.Context, filter shared.Filter) ([]InventoryRecordResponse, int64, error) {
	records, err := s.recordRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.recordRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InventoryRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToInventoryRecordResponse(&records[i]))
	}
	return responses, total, nil
}

// AdjustInventory applies a manual administrative correction, clamped
// at zero, and writes an audit entry in the same transaction. The
// request carries either an absolute new quantity or a signed delta.
func (s *LedgerService) AdjustInventory(ctx context.Context, actorID, variantID uuid.UUID, req AdjustInventoryRequest) (*AdjustInventoryResponse, error) {
	if (req.NewQuantity == nil) == (req.Delta == nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Exactly one of new_quantity or delta must be provided")
	}
	if req.NewQuantity != nil && *req.NewQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "New quantity cannot be negative")
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	var response *AdjustInventoryResponse
	err := ExecuteWithRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		record, err := repos.Records().GetOrCreate(ctx, variantID)
		if err != nil {
			return err
		}

		delta := int64(0)
		if req.NewQuantity != nil {
			delta = *req.NewQuantity - record.Quantity
		} else {
			delta = *req.Delta
		}

		applied := record.AdjustClamped(delta)
		if err := repos.Records().SaveWithLock(ctx, record); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, audit.ActionStockAdjusted,
			"inventory_record", record.ID.String(),
			fmt.Sprintf("variant=%s applied_delta=%d quantity=%d reason=%s",
				variantID, applied, record.Quantity, req.Reason))
		if err != nil {
			return err
		}
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		resp := ToInventoryRecordResponse(record)
		response = &AdjustInventoryResponse{Record: resp, AppliedDelta: applied}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory adjusted",
		zap.String("variant_id", variantID.String()),
		zap.Int64("applied_delta", response.AppliedDelta),
		zap.Int64("quantity", response.Record.Quantity))

	return response, nil
}
