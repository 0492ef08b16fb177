package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// InventoryRecordSortFields contains allowed sort fields for inventory records
var InventoryRecordSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"variant_id": true,
	"quantity":   true,
}

// ImportBatchSortFields contains allowed sort fields for import batches
var ImportBatchSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"supplier_id":    true,
	"reference":      true,
	"total_amount":   true,
	"import_status":  true,
	"payment_status": true,
	"completed_at":   true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"user_id":    true,
	"total":      true,
	"status":     true,
}

// AuditEntrySortFields contains allowed sort fields for audit entries
var AuditEntrySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"actor_id":    true,
	"action":      true,
	"entity_type": true,
}
