package imports

import (
	"fmt"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus represents the delivery lifecycle of an import batch.
// Only the transition into COMPLETED touches the inventory ledger.
type ImportStatus string

const (
	ImportStatusDraft      ImportStatus = "DRAFT"
	ImportStatusPending    ImportStatus = "PENDING"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusCancelled  ImportStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ImportStatus
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusDraft, ImportStatusPending, ImportStatusProcessing,
		ImportStatusCompleted, ImportStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ImportStatus
func (s ImportStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that permit no further transitions
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s ImportStatus) CanTransitionTo(target ImportStatus) bool {
	switch s {
	case ImportStatusDraft:
		return target == ImportStatusPending || target == ImportStatusCancelled
	case ImportStatusPending:
		return target == ImportStatusProcessing || target == ImportStatusCancelled
	case ImportStatusProcessing:
		return target == ImportStatusCompleted || target == ImportStatusCancelled
	case ImportStatusCompleted, ImportStatusCancelled:
		return false // Terminal states
	}
	return false
}

// PaymentStatus tracks settlement with the supplier. It transitions
// independently of ImportStatus and never gates ledger effects.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusCancelled     PaymentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the payment status can transition to the target.
// Payment moves forward only; PAID is terminal success and CANCELLED is
// reachable from any non-PAID state.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusPartiallyPaid || target == PaymentStatusPaid || target == PaymentStatusCancelled
	case PaymentStatusPartiallyPaid:
		return target == PaymentStatusPaid || target == PaymentStatusCancelled
	case PaymentStatusPaid, PaymentStatusCancelled:
		return false // Terminal states
	}
	return false
}

// InvalidTransitionError reports a state change the lifecycle graph forbids
type InvalidTransitionError struct {
	From string
	To   string
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// Code returns the domain error code for HTTP mapping
func (e *InvalidTransitionError) Code() string {
	return "INVALID_STATE"
}

// Is allows errors.Is matching against shared.ErrInvalidState
func (e *InvalidTransitionError) Is(target error) bool {
	return target == shared.ErrInvalidState
}

// ImportBatchItem is a line within an import batch. Once the parent
// batch reaches COMPLETED the item is immutable and becomes part of the
// variant's purchase/warranty history.
type ImportBatchItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	ImportID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	InventoryID        uuid.UUID       `gorm:"type:uuid;not null"` // Denormalized link to the inventory record this line will credit
	Quantity           int64           `gorm:"not null"`
	NetPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WarrantyPeriodDays *int            `gorm:""`
	WarrantyExpiry     *time.Time      `gorm:""`
	Notes              string          `gorm:"type:varchar(500)"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImportBatchItem) TableName() string {
	return "import_batch_items"
}

// NewImportBatchItem creates a new import batch line item
func NewImportBatchItem(importID, variantID, inventoryID uuid.UUID, quantity int64, netPrice decimal.Decimal) (*ImportBatchItem, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if netPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Net price cannot be negative")
	}

	now := time.Now()
	return &ImportBatchItem{
		ID:          uuid.New(),
		ImportID:    importID,
		VariantID:   variantID,
		InventoryID: inventoryID,
		Quantity:    quantity,
		NetPrice:    netPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetWarranty records the warranty terms sold with this line
func (i *ImportBatchItem) SetWarranty(periodDays *int, expiry *time.Time) error {
	if periodDays != nil && *periodDays <= 0 {
		return shared.NewDomainError("INVALID_WARRANTY", "Warranty period must be positive")
	}

	i.WarrantyPeriodDays = periodDays
	i.WarrantyExpiry = expiry
	i.UpdatedAt = time.Now()

	return nil
}

// SetNotes sets free-text notes on the line
func (i *ImportBatchItem) SetNotes(notes string) {
	i.Notes = notes
	i.UpdatedAt = time.Now()
}

// Amount returns NetPrice * Quantity for this line
func (i *ImportBatchItem) Amount() decimal.Decimal {
	return i.NetPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// ImportBatch is a recorded supplier delivery: the aggregate root for
// the import lifecycle. It carries two independent state machines,
// ImportStatus (delivery) and PaymentStatus (settlement).
type ImportBatch struct {
	shared.BaseAggregateRoot
	SupplierID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index"` // Admin who recorded the delivery
	Reference     string            `gorm:"type:varchar(200)"`
	TotalAmount   decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	ImportStatus  ImportStatus      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentStatus PaymentStatus     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Items         []ImportBatchItem `gorm:"foreignKey:ImportID;references:ID"`
	CompletedAt   *time.Time        `gorm:"index"`
	CancelledAt   *time.Time
}

// TableName returns the table name for GORM
func (ImportBatch) TableName() string {
	return "import_batches"
}

// NewImportBatch creates a new import batch in DRAFT with PENDING payment
func NewImportBatch(supplierID, userID uuid.UUID, reference string) (*ImportBatch, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	return &ImportBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		UserID:            userID,
		Reference:         reference,
		TotalAmount:       decimal.Zero,
		ImportStatus:      ImportStatusDraft,
		PaymentStatus:     PaymentStatusPending,
		Items:             make([]ImportBatchItem, 0),
	}, nil
}

// AddItem appends a line to the batch. Only allowed in DRAFT.
func (b *ImportBatch) AddItem(variantID, inventoryID uuid.UUID, quantity int64, netPrice decimal.Decimal) (*ImportBatchItem, error) {
	if b.ImportStatus != ImportStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft batch")
	}

	item, err := NewImportBatchItem(b.ID, variantID, inventoryID, quantity, netPrice)
	if err != nil {
		return nil, err
	}

	b.Items = append(b.Items, *item)
	b.recalculateTotal()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return &b.Items[len(b.Items)-1], nil
}

// SetTotalAmount overrides the computed total with an explicit amount
func (b *ImportBatch) SetTotalAmount(total decimal.Decimal) error {
	if b.ImportStatus != ImportStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change total of a non-draft batch")
	}
	if total.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}

	b.TotalAmount = total
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// TransitionImportStatus moves the batch along the delivery lifecycle.
// Illegal transitions fail with InvalidTransitionError and leave the
// batch unchanged. The caller is responsible for crediting the ledger
// in the same transaction when this lands on COMPLETED.
func (b *ImportBatch) TransitionImportStatus(target ImportStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown import status %q", target))
	}
	if !b.ImportStatus.CanTransitionTo(target) {
		return &InvalidTransitionError{From: b.ImportStatus.String(), To: target.String()}
	}
	if target == ImportStatusCompleted && len(b.Items) == 0 {
		return shared.NewDomainError("EMPTY_BATCH", "Cannot complete a batch with no items")
	}

	now := time.Now()
	b.ImportStatus = target
	switch target {
	case ImportStatusCompleted:
		b.CompletedAt = &now
	case ImportStatusCancelled:
		b.CancelledAt = &now
	}
	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// TransitionPaymentStatus moves the settlement axis. It never consults
// ImportStatus: payment has no ledger effect.
func (b *ImportBatch) TransitionPaymentStatus(target PaymentStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown payment status %q", target))
	}
	if !b.PaymentStatus.CanTransitionTo(target) {
		return &InvalidTransitionError{From: b.PaymentStatus.String(), To: target.String()}
	}

	b.PaymentStatus = target
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// IsCompleted returns true if the delivery reached COMPLETED
func (b *ImportBatch) IsCompleted() bool {
	return b.ImportStatus == ImportStatusCompleted
}

// recalculateTotal recomputes TotalAmount as the sum of line amounts
func (b *ImportBatch) recalculateTotal() {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Amount())
	}
	b.TotalAmount = total
}
