package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormImportBatchRepository implements ImportBatchRepository using GORM
type GormImportBatchRepository struct {
	db *gorm.DB
}

// NewGormImportBatchRepository creates a new GormImportBatchRepository
func NewGormImportBatchRepository(db *gorm.DB) *GormImportBatchRepository {
	return &GormImportBatchRepository{db: db}
}

// FindByID finds an import batch by its ID, items included
func (r *GormImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*imports.ImportBatch, error) {
	var batch imports.ImportBatch
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDs finds multiple import batches by their IDs, items included
func (r *GormImportBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]imports.ImportBatch, error) {
	if len(ids) == 0 {
		return []imports.ImportBatch{}, nil
	}

	var batches []imports.ImportBatch
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindAll finds import batches with filtering and pagination
func (r *GormImportBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]imports.ImportBatch, error) {
	var batches []imports.ImportBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&imports.ImportBatch{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// importItemDetailRow is the flat scan target for FindItemsByVariant
type importItemDetailRow struct {
	ID                 uuid.UUID
	ImportID           uuid.UUID
	VariantID          uuid.UUID
	InventoryID        uuid.UUID
	Quantity           int64
	NetPrice           decimal.Decimal
	WarrantyPeriodDays *int
	WarrantyExpiry     *time.Time
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	SupplierID         uuid.UUID
	UserID             uuid.UUID
	Reference          string
	ImportStatus       imports.ImportStatus
	CompletedAt        *time.Time
}

// FindItemsByVariant finds items touching a variant whose parent batch is in one
// of the given statuses, most recently completed first. Batches that have not
// completed yet sort after completed ones, newest creation first.
func (r *GormImportBatchRepository) FindItemsByVariant(ctx context.Context, variantID uuid.UUID, statuses []imports.ImportStatus) ([]imports.ImportBatchItemDetail, error) {
	query := r.db.WithContext(ctx).
		Table("import_batch_items").
		Select("import_batch_items.*, import_batches.supplier_id, import_batches.user_id, import_batches.reference, import_batches.import_status, import_batches.completed_at").
		Joins("JOIN import_batches ON import_batches.id = import_batch_items.import_id").
		Where("import_batch_items.variant_id = ?", variantID)

	if len(statuses) > 0 {
		query = query.Where("import_batches.import_status IN ?", statuses)
	}

	var rows []importItemDetailRow
	if err := query.
		Order("import_batches.completed_at DESC NULLS LAST, import_batches.created_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	details := make([]imports.ImportBatchItemDetail, len(rows))
	for i, row := range rows {
		details[i] = imports.ImportBatchItemDetail{
			Item: imports.ImportBatchItem{
				ID:                 row.ID,
				ImportID:           row.ImportID,
				VariantID:          row.VariantID,
				InventoryID:        row.InventoryID,
				Quantity:           row.Quantity,
				NetPrice:           row.NetPrice,
				WarrantyPeriodDays: row.WarrantyPeriodDays,
				WarrantyExpiry:     row.WarrantyExpiry,
				Notes:              row.Notes,
				CreatedAt:          row.CreatedAt,
				UpdatedAt:          row.UpdatedAt,
			},
			SupplierID:   row.SupplierID,
			UserID:       row.UserID,
			Reference:    row.Reference,
			ImportStatus: row.ImportStatus,
			CompletedAt:  row.CompletedAt,
		}
	}
	return details, nil
}

// Save creates or updates an import batch together with its items
func (r *GormImportBatchRepository) Save(ctx context.Context, batch *imports.ImportBatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(batch).Error; err != nil {
			return err
		}

		// Handle items: delete removed items and save/update existing ones
		currentItemIDs := make([]uuid.UUID, len(batch.Items))
		for i, item := range batch.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("import_id = ? AND id NOT IN ?", batch.ID, currentItemIDs).
				Delete(&imports.ImportBatchItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("import_id = ?", batch.ID).
				Delete(&imports.ImportBatchItem{}).Error; err != nil {
				return err
			}
		}

		for i := range batch.Items {
			batch.Items[i].ImportID = batch.ID
			if err := tx.Save(&batch.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock persists status changes with an optimistic version check.
// Items are not touched; status transitions never modify line items.
func (r *GormImportBatchRepository) SaveWithLock(ctx context.Context, batch *imports.ImportBatch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"total_amount":   batch.TotalAmount,
			"import_status":  batch.ImportStatus,
			"payment_status": batch.PaymentStatus,
			"completed_at":   batch.CompletedAt,
			"cancelled_at":   batch.CancelledAt,
			"version":        batch.Version,
			"updated_at":     batch.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts import batches matching the filter
func (r *GormImportBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&imports.ImportBatch{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormImportBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ImportBatchSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormImportBatchRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "user_id":
			query = query.Where("user_id = ?", value)
		case "import_status":
			query = query.Where("import_status = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "reference":
			query = query.Where("reference = ?", value)
		case "completed_after":
			query = query.Where("completed_at >= ?", value)
		case "completed_before":
			query = query.Where("completed_at <= ?", value)
		}
	}

	return query
}

// Ensure GormImportBatchRepository implements ImportBatchRepository
var _ imports.ImportBatchRepository = (*GormImportBatchRepository)(nil)
