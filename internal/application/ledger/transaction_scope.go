package ledger

import (
	"context"
	"errors"

	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the repositories a
// stock-moving operation touches. When a function executes within a
// scope, every repository operation joins the same database transaction
// and commits or rolls back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all stock-adjacent
// repositories within one transaction. Audit writes share the
// transaction, so a committed mutation and its trail entry are
// inseparable.
type TransactionalRepositories interface {
	// Records returns the inventory record repository scoped to the current transaction
	Records() ledger.InventoryRecordRepository
	// Batches returns the import batch repository scoped to the current transaction
	Batches() imports.ImportBatchRepository
	// Orders returns the order repository scoped to the current transaction
	Orders() fulfillment.OrderRepository
	// Audit returns the audit entry repository scoped to the current transaction
	Audit() audit.EntryRepository
}

// ExecuteWithRetry runs fn in a transaction and retries the whole
// operation exactly once when it fails with a concurrency conflict.
// A second conflict is returned to the caller as-is.
func ExecuteWithRetry(ctx context.Context, scope TransactionScope, fn func(repos TransactionalRepositories) error) error {
	err := scope.Execute(ctx, fn)
	if err != nil && errors.Is(err, shared.ErrConcurrencyConflict) {
		return scope.Execute(ctx, fn)
	}
	return err
}

// NoOpTransactionScope runs functions without a real transaction.
// Useful in tests that only need the repository wiring.
type NoOpTransactionScope struct {
	RecordRepo ledger.InventoryRecordRepository
	BatchRepo  imports.ImportBatchRepository
	OrderRepo  fulfillment.OrderRepository
	AuditRepo  audit.EntryRepository
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Records returns the inventory record repository
func (s *NoOpTransactionScope) Records() ledger.InventoryRecordRepository { return s.RecordRepo }

// Batches returns the import batch repository
func (s *NoOpTransactionScope) Batches() imports.ImportBatchRepository { return s.BatchRepo }

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() fulfillment.OrderRepository { return s.OrderRepo }

// Audit returns the audit entry repository
func (s *NoOpTransactionScope) Audit() audit.EntryRepository { return s.AuditRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
