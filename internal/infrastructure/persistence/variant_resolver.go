package persistence

import (
	"context"
	"errors"

	"github.com/digistore/backend/internal/domain/catalog"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// variantRow is the persistence projection of the catalog read model.
// The ledger never writes this table; it is populated by the catalog
// subsystem and read here only for display annotation.
type variantRow struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	AttributeSummary string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for variantRow
func (variantRow) TableName() string {
	return "catalog_variants"
}

// GormVariantResolver implements catalog.VariantResolver against the
// catalog read model table
type GormVariantResolver struct {
	db *gorm.DB
}

// NewGormVariantResolver creates a new GormVariantResolver
func NewGormVariantResolver(db *gorm.DB) *GormVariantResolver {
	return &GormVariantResolver{db: db}
}

// ResolveVariant returns display metadata for a variant.
// Returns shared.ErrNotFound for unknown variants.
func (r *GormVariantResolver) ResolveVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	var row variantRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &catalog.Variant{
		ID:               row.ID,
		ProductID:        row.ProductID,
		AttributeSummary: row.AttributeSummary,
	}, nil
}
