package fulfillment

import (
	"fmt"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle of a customer order. Stock is
// consumed at placement, so a new order starts in PROCESSING; CANCELLED
// and REFUNDED are the terminal rollback states that return stock.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusConfirmed, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that permit no further transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// ReversesStock returns true for target states whose entry must return
// the order's stock to the ledger
func (s OrderStatus) ReversesStock() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusDelivered || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusDelivered:
		return target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusCancelled, OrderStatusRefunded:
		return false // Terminal states
	}
	return false
}

// InvalidTransitionError reports an order status change the lifecycle forbids
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

// OrderItem is a line within a customer order. Each item corresponds to
// exactly one ledger decrement made when the order was placed.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int64           `gorm:"not null"`
	RetailPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Cost basis at time of sale
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID, variantID uuid.UUID, quantity int64, retailPrice, netPrice decimal.Decimal) (*OrderItem, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if retailPrice.IsNegative() || netPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		VariantID:   variantID,
		Quantity:    quantity,
		RetailPrice: retailPrice,
		NetPrice:    netPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Amount returns RetailPrice * Quantity for this line
func (i *OrderItem) Amount() decimal.Decimal {
	return i.RetailPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is a customer purchase: the aggregate root for fulfillment.
type Order struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'PROCESSING';index"`
	Notes       string          `gorm:"type:varchar(500)"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;references:ID"`
	CancelledAt *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in PROCESSING. Items are added by the
// coordinator before the order is first persisted.
func NewOrder(userID uuid.UUID, notes string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Total:             decimal.Zero,
		Status:            OrderStatusProcessing,
		Notes:             notes,
		Items:             make([]OrderItem, 0),
	}, nil
}

// AddItem appends a line to the order. Only allowed before the order
// leaves its initial PROCESSING state.
func (o *Order) AddItem(variantID uuid.UUID, quantity int64, retailPrice, netPrice decimal.Decimal) (*OrderItem, error) {
	if o.Status != OrderStatusProcessing {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to an order in progress")
	}

	item, err := NewOrderItem(o.ID, variantID, quantity, retailPrice, netPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return &o.Items[len(o.Items)-1], nil
}

// TransitionStatus moves the order along its lifecycle. Illegal
// transitions fail with InvalidTransitionError and leave the order
// unchanged. When the target reverses stock, the caller must credit
// the ledger for every item in the same transaction.
func (o *Order) TransitionStatus(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: o.Status.String(), To: target.String()}
	}

	now := time.Now()
	o.Status = target
	if target == OrderStatusCancelled {
		o.CancelledAt = &now
	}
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// recalculateTotal recomputes Total as the sum of line amounts
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount())
	}
	o.Total = total
}
