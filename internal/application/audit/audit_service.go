// Package audit exposes the append-only trail for administrative review.
package audit

import (
	"context"
	"time"

	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EntryResponse is the read model for one audit entry
type EntryResponse struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToEntryResponse converts a domain entry to its response form
func ToEntryResponse(entry *audit.Entry) EntryResponse {
	return EntryResponse{
		ID:         entry.ID.String(),
		ActorID:    entry.ActorID.String(),
		Action:     string(entry.Action),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     entry.Detail,
		CreatedAt:  entry.CreatedAt,
	}
}

// AuditService answers read queries over the audit trail. The trail is
// written by the mutating services, never through this one.
type AuditService struct {
	entryRepo audit.EntryRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(entryRepo audit.EntryRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		entryRepo: entryRepo,
		logger:    logger,
	}
}

// List returns entries matching the filter, newest first
func (s *AuditService) List(ctx context.Context, filter shared.Filter) ([]EntryResponse, error) {
	entries, err := s.entryRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToEntryResponse(&entries[i]))
	}
	return responses, nil
}

// ListByEntity returns the trail for a single entity, newest first
func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string, filter shared.Filter) ([]EntryResponse, error) {
	if entityType == "" || entityID == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Entity type and ID are required")
	}

	entries, err := s.entryRepo.FindByEntity(ctx, entityType, entityID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToEntryResponse(&entries[i]))
	}
	return responses, nil
}
