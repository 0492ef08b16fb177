package persistence

import (
	"context"

	appledger "github.com/digistore/backend/internal/application/ledger"
	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Records returns the inventory record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Records() ledger.InventoryRecordRepository {
	return NewGormInventoryRecordRepository(r.tx)
}

// Batches returns the import batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Batches() imports.ImportBatchRepository {
	return NewGormImportBatchRepository(r.tx)
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() fulfillment.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Audit returns the audit entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Audit() audit.EntryRepository {
	return NewGormAuditEntryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
