package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements InventoryRecordRepository using GORM
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindByID finds an inventory record by its ID
func (r *GormInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.InventoryRecord, error) {
	var record ledger.InventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByVariantID finds the inventory record for a variant
func (r *GormInventoryRecordRepository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*ledger.InventoryRecord, error) {
	var record ledger.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByVariantIDs finds inventory records for multiple variants
func (r *GormInventoryRecordRepository) FindByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]ledger.InventoryRecord, error) {
	if len(variantIDs) == 0 {
		return []ledger.InventoryRecord{}, nil
	}

	var records []ledger.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetOrCreate gets the existing record for a variant or creates one at quantity zero
func (r *GormInventoryRecordRepository) GetOrCreate(ctx context.Context, variantID uuid.UUID) (*ledger.InventoryRecord, error) {
	// Try to find existing
	record, err := r.FindByVariantID(ctx, variantID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// Create new inventory record
	record, err = ledger.NewInventoryRecord(variantID)
	if err != nil {
		return nil, err
	}

	// Use ON CONFLICT to handle race conditions
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "variant_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return nil, result.Error
	}

	// If the row wasn't created (conflict), fetch the existing one
	if result.RowsAffected == 0 {
		return r.FindByVariantID(ctx, variantID)
	}

	return record, nil
}

// Save creates or updates an inventory record
func (r *GormInventoryRecordRepository) Save(ctx context.Context, record *ledger.InventoryRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormInventoryRecordRepository) SaveWithLock(ctx context.Context, record *ledger.InventoryRecord) error {
	result := r.db.WithContext(ctx).
		Model(record).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"quantity":   record.Quantity,
			"version":    record.Version,
			"updated_at": record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindAll finds inventory records with filtering and pagination
func (r *GormInventoryRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.InventoryRecord, error) {
	var records []ledger.InventoryRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.InventoryRecord{}),
		filter,
	)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count counts inventory records matching the filter
func (r *GormInventoryRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&ledger.InventoryRecord{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormInventoryRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	orderBy := ValidateSortField(filter.OrderBy, InventoryRecordSortFields, "created_at")
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) != "asc" {
		orderDir = "DESC"
	}
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInventoryRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "variant_id":
			query = query.Where("variant_id = ?", value)
		case "out_of_stock":
			if value == true {
				query = query.Where("quantity = 0")
			}
		case "has_stock":
			if value == true {
				query = query.Where("quantity > 0")
			}
		case "max_quantity":
			query = query.Where("quantity <= ?", value)
		case "min_quantity":
			query = query.Where("quantity >= ?", value)
		}
	}

	return query
}

// Ensure GormInventoryRecordRepository implements InventoryRecordRepository
var _ ledger.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
