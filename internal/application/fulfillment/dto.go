package fulfillment

import (
	"time"

	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/shopspring/decimal"
)

// PlaceOrderItemRequest is one line of a checkout request. Prices are
// snapshots taken by the storefront at checkout time.
type PlaceOrderItemRequest struct {
	VariantID   string          `json:"variant_id"`
	Quantity    int64           `json:"quantity"`
	RetailPrice decimal.Decimal `json:"retail_price"`
	NetPrice    decimal.Decimal `json:"net_price"`
}

// PlaceOrderRequest is a checkout submission
type PlaceOrderRequest struct {
	Items          []PlaceOrderItemRequest `json:"items"`
	Notes          string                  `json:"notes,omitempty"`
	IdempotencyKey string                  `json:"idempotency_key,omitempty"`
}

// OrderItemResponse is the read model for one order line
type OrderItemResponse struct {
	ID          string          `json:"id"`
	VariantID   string          `json:"variant_id"`
	Quantity    int64           `json:"quantity"`
	RetailPrice decimal.Decimal `json:"retail_price"`
	NetPrice    decimal.Decimal `json:"net_price"`
}

// OrderResponse is the read model for an order
type OrderResponse struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	Total       decimal.Decimal         `json:"total"`
	Status      fulfillment.OrderStatus `json:"status"`
	Notes       string                  `json:"notes,omitempty"`
	Items       []OrderItemResponse     `json:"items"`
	CancelledAt *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Version     int                     `json:"version"`
}

// ToOrderItemResponse converts a domain order item to its response form
func ToOrderItemResponse(item *fulfillment.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID.String(),
		VariantID:   item.VariantID.String(),
		Quantity:    item.Quantity,
		RetailPrice: item.RetailPrice,
		NetPrice:    item.NetPrice,
	}
}

// ToOrderResponse converts a domain order to its response form
func ToOrderResponse(order *fulfillment.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, ToOrderItemResponse(&order.Items[i]))
	}
	return OrderResponse{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		Total:       order.Total,
		Status:      order.Status,
		Notes:       order.Notes,
		Items:       items,
		CancelledAt: order.CancelledAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		Version:     order.Version,
	}
}

// BulkUpdateOutcome reports one order within a bulk status change.
// Bulk changes are all-or-nothing, so outcomes are only returned when
// every order made the transition.
type BulkUpdateOutcome struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
}
