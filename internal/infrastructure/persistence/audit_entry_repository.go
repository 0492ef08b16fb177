package persistence

import (
	"context"

	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAuditEntryRepository implements EntryRepository using GORM.
// The trail is append-only; there are no update or delete paths.
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewGormAuditEntryRepository creates a new GormAuditEntryRepository
func NewGormAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

// Append stores a new audit entry
func (r *GormAuditEntryRepository) Append(ctx context.Context, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByEntity finds entries for one entity, newest first
func (r *GormAuditEntryRepository) FindByEntity(ctx context.Context, entityType, entityID string, filter shared.Filter) ([]audit.Entry, error) {
	var entries []audit.Entry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&audit.Entry{}).
			Where("entity_type = ? AND entity_id = ?", entityType, entityID),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindAll finds entries with filtering and pagination
func (r *GormAuditEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Entry, error) {
	var entries []audit.Entry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&audit.Entry{}),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// applyFilter applies filter options to the query
func (r *GormAuditEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "actor_id":
			query = query.Where("actor_id = ?", value)
		case "action":
			query = query.Where("action = ?", value)
		case "entity_type":
			query = query.Where("entity_type = ?", value)
		case "created_after":
			query = query.Where("created_at >= ?", value)
		case "created_before":
			query = query.Where("created_at <= ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AuditEntrySortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

// Ensure GormAuditEntryRepository implements EntryRepository
var _ audit.EntryRepository = (*GormAuditEntryRepository)(nil)
