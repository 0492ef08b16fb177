// Package importapp coordinates the import batch lifecycle: recording
// supplier deliveries, walking them through the delivery state machine
// and crediting the inventory ledger when a batch completes.
package importapp

import (
	"context"
	"fmt"

	appledger "github.com/digistore/backend/internal/application/ledger"
	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportService manages import batches. Completing a batch is the only
// path that credits stock; the increment and the status change commit
// in one transaction.
type ImportService struct {
	batchRepo imports.ImportBatchRepository
	scope     appledger.TransactionScope
	logger    *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(batchRepo imports.ImportBatchRepository, scope appledger.TransactionScope, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		batchRepo: batchRepo,
		scope:     scope,
		logger:    logger,
	}
}

// CreateBatch records a new supplier delivery in DRAFT. Inventory
// records are created up front for any variant not seen before, so
// every line carries a resolved inventory link; quantities stay
// untouched until the batch completes.
func (s *ImportService) CreateBatch(ctx context.Context, actorID uuid.UUID, req CreateImportBatchRequest) (*ImportBatchResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID must be a valid UUID")
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "An import batch must have at least one item")
	}

	var response *ImportBatchResponse
	err = appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		batch, err := imports.NewImportBatch(supplierID, actorID, req.Reference)
		if err != nil {
			return err
		}

		for idx, itemReq := range req.Items {
			variantID, err := uuid.Parse(itemReq.VariantID)
			if err != nil {
				return shared.NewDomainError("INVALID_VARIANT", fmt.Sprintf("Item %d: variant ID must be a valid UUID", idx))
			}

			record, err := repos.Records().GetOrCreate(ctx, variantID)
			if err != nil {
				return err
			}

			item, err := batch.AddItem(variantID, record.ID, itemReq.Quantity, itemReq.NetPrice)
			if err != nil {
				return err
			}
			if err := item.SetWarranty(itemReq.WarrantyPeriodDays, itemReq.WarrantyExpiry); err != nil {
				return err
			}
			if itemReq.Notes != "" {
				item.SetNotes(itemReq.Notes)
			}
		}

		if req.TotalAmount != nil {
			if err := batch.SetTotalAmount(*req.TotalAmount); err != nil {
				return err
			}
		}

		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, audit.ActionImportCreated,
			"import_batch", batch.ID.String(),
			fmt.Sprintf("supplier=%s items=%d total=%s", supplierID, len(batch.Items), batch.TotalAmount))
		if err != nil {
			return err
		}
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		resp := ToImportBatchResponse(batch)
		response = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("import batch created",
		zap.String("batch_id", response.ID),
		zap.String("supplier_id", response.SupplierID),
		zap.Int("items", len(response.Items)))

	return response, nil
}

// TransitionImportStatus moves a batch along the delivery lifecycle.
// When the target is COMPLETED, every line's quantity is credited to
// its variant's inventory record in the same transaction as the status
// change, so a crash can never leave stock half applied.
func (s *ImportService) TransitionImportStatus(ctx context.Context, actorID, batchID uuid.UUID, target imports.ImportStatus) (*ImportBatchResponse, error) {
	var response *ImportBatchResponse
	err := appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := batch.TransitionImportStatus(target); err != nil {
			return err
		}

		if target == imports.ImportStatusCompleted {
			if err := s.creditStock(ctx, repos, batch); err != nil {
				return err
			}
		}

		if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
			return err
		}

		if target == imports.ImportStatusCompleted {
			entry, err := audit.NewEntry(actorID, audit.ActionImportCompleted,
				"import_batch", batch.ID.String(),
				fmt.Sprintf("supplier=%s items=%d total=%s", batch.SupplierID, len(batch.Items), batch.TotalAmount))
			if err != nil {
				return err
			}
			if err := repos.Audit().Append(ctx, entry); err != nil {
				return err
			}
		}

		resp := ToImportBatchResponse(batch)
		response = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("import batch transitioned",
		zap.String("batch_id", batchID.String()),
		zap.String("import_status", target.String()))

	return response, nil
}

// creditStock increments the inventory record of every line in the
// batch. Must run inside the transaction that commits the COMPLETED
// status.
func (s *ImportService) creditStock(ctx context.Context, repos appledger.TransactionalRepositories, batch *imports.ImportBatch) error {
	for i := range batch.Items {
		item := &batch.Items[i]
		record, err := repos.Records().GetOrCreate(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if err := record.Increment(item.Quantity); err != nil {
			return err
		}
		if err := repos.Records().SaveWithLock(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// BulkTransitionImportStatus applies the same transition to several
// batches. Each batch is evaluated independently in its own
// transaction, so one illegal transition does not block the rest. A
// single summary audit entry is written when at least one batch
// succeeded.
func (s *ImportService) BulkTransitionImportStatus(ctx context.Context, actorID uuid.UUID, batchIDs []uuid.UUID, target imports.ImportStatus) ([]BulkTransitionOutcome, error) {
	if len(batchIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one batch ID is required")
	}
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown import status %q", target))
	}

	outcomes := make([]BulkTransitionOutcome, 0, len(batchIDs))
	succeeded := 0
	for _, id := range batchIDs {
		if _, err := s.TransitionImportStatus(ctx, actorID, id, target); err != nil {
			outcomes = append(outcomes, BulkTransitionOutcome{BatchID: id.String(), Success: false, Error: err.Error()})
			continue
		}
		succeeded++
		outcomes = append(outcomes, BulkTransitionOutcome{BatchID: id.String(), Success: true})
	}

	if succeeded > 0 {
		err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			entry, err := audit.NewEntry(actorID, audit.ActionImportBulk,
				"import_batch", "bulk",
				fmt.Sprintf("target=%s requested=%d succeeded=%d failed=%d",
					target, len(batchIDs), succeeded, len(batchIDs)-succeeded))
			if err != nil {
				return err
			}
			return repos.Audit().Append(ctx, entry)
		})
		if err != nil {
			return nil, err
		}
	}

	return outcomes, nil
}

// TransitionPaymentStatus moves the settlement axis of a batch. It has
// no ledger effect and writes no stock audit entry.
func (s *ImportService) TransitionPaymentStatus(ctx context.Context, batchID uuid.UUID, target imports.PaymentStatus) (*ImportBatchResponse, error) {
	var response *ImportBatchResponse
	err := appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		if err := batch.TransitionPaymentStatus(target); err != nil {
			return err
		}
		if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
			return err
		}

		resp := ToImportBatchResponse(batch)
		response = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("import batch payment transitioned",
		zap.String("batch_id", batchID.String()),
		zap.String("payment_status", target.String()))

	return response, nil
}

// GetBatch returns a single batch with its items
func (s *ImportService) GetBatch(ctx context.Context, batchID uuid.UUID) (*ImportBatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := ToImportBatchResponse(batch)
	return &resp, nil
}

// ListBatches returns batches with pagination
func (s *ImportService) ListBatches(ctx context.Context, filter shared.Filter) ([]ImportBatchResponse, int64, error) {
	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batchRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ImportBatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToImportBatchResponse(&batches[i]))
	}
	return responses, total, nil
}
