// Package audit records stock movements and administrative actions.
// Entries are written inside the same transaction as the mutation they
// describe, so the trail only ever contains operations that committed.
package audit

import (
	"context"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Action identifies what kind of operation an entry records
type Action string

const (
	ActionOrderPlaced     Action = "ORDER_PLACED"
	ActionOrderCancelled  Action = "ORDER_CANCELLED"
	ActionOrderRefunded   Action = "ORDER_REFUNDED"
	ActionOrderBulkUpdate Action = "ORDER_BULK_UPDATE"
	ActionImportCreated   Action = "IMPORT_CREATED"
	ActionImportCompleted Action = "IMPORT_COMPLETED"
	ActionImportBulk      Action = "IMPORT_BULK_TRANSITION"
	ActionStockAdjusted   Action = "STOCK_ADJUSTED"
)

// Entry is one append-only audit record
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Action     Action    `gorm:"type:varchar(40);not null;index"`
	EntityType string    `gorm:"type:varchar(40);not null"`
	EntityID   string    `gorm:"type:varchar(64);not null;index"` // Single id, or a summary key for bulk operations
	Detail     string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "audit_entries"
}

// NewEntry creates an audit entry
func NewEntry(actorID uuid.UUID, action Action, entityType, entityID, detail string) (*Entry, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	if entityType == "" || entityID == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Entity type and ID are required")
	}

	return &Entry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}, nil
}

// EntryRepository defines the persistence contract for audit entries
type EntryRepository interface {
	// Append stores a new entry; entries are never updated or deleted
	Append(ctx context.Context, entry *Entry) error

	// FindByEntity lists entries for one entity, newest first
	FindByEntity(ctx context.Context, entityType, entityID string, filter shared.Filter) ([]Entry, error)

	// FindAll lists entries with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Entry, error)
}
