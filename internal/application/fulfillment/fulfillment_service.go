// Package fulfillment coordinates customer checkout and the order
// lifecycle. Placing an order debits the inventory ledger; cancelling
// or refunding credits it back. Every stock movement and the order
// state change that caused it commit in one transaction.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	appledger "github.com/digistore/backend/internal/application/ledger"
	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentService manages orders. Checkout is fail-fast: the first
// variant with insufficient stock aborts the whole order and no partial
// decrement survives.
type FulfillmentService struct {
	orderRepo  fulfillment.OrderRepository
	scope      appledger.TransactionScope
	idemStore  shared.IdempotencyStore
	idemConfig shared.IdempotencyConfig
	logger     *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService. The
// idempotency store may be nil, in which case idempotency keys are
// ignored.
func NewFulfillmentService(orderRepo fulfillment.OrderRepository, scope appledger.TransactionScope, idemStore shared.IdempotencyStore, idemConfig shared.IdempotencyConfig, logger *zap.Logger) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		orderRepo:  orderRepo,
		scope:      scope,
		idemStore:  idemStore,
		idemConfig: idemConfig,
		logger:     logger,
	}
}

// orderLine is a checkout item whose variant ID has already been
// parsed and whose quantity has already been validated.
type orderLine struct {
	variantID uuid.UUID
	item      PlaceOrderItemRequest
}

// PlaceOrder runs a checkout. Malformed input is rejected before any
// transaction opens. Within one transaction it then decrements stock
// for every line and creates the order in PROCESSING; if any variant
// cannot cover its requested quantity the transaction rolls back and
// the customer sees which variant fell short. A repeated idempotency
// key short-circuits with a duplicate error instead of charging stock
// twice.
func (s *FulfillmentService) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "An order must have at least one item")
	}

	lines := make([]orderLine, 0, len(req.Items))
	for idx, itemReq := range req.Items {
		variantID, err := uuid.Parse(itemReq.VariantID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_VARIANT", fmt.Sprintf("Item %d: variant ID must be a valid UUID", idx))
		}
		if itemReq.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Item %d: quantity must be positive", idx))
		}
		lines = append(lines, orderLine{variantID: variantID, item: itemReq})
	}

	if err := s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var response *OrderResponse
	err := appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		order, err := fulfillment.NewOrder(userID, req.Notes)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if err := s.debitStock(ctx, repos, line.variantID, line.item.Quantity); err != nil {
				return err
			}

			if _, err := order.AddItem(line.variantID, line.item.Quantity, line.item.RetailPrice, line.item.NetPrice); err != nil {
				return err
			}
		}

		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}

		entry, err := audit.NewEntry(userID, audit.ActionOrderPlaced,
			"order", order.ID.String(),
			fmt.Sprintf("items=%d total=%s", len(order.Items), order.Total))
		if err != nil {
			return err
		}
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		resp := ToOrderResponse(order)
		response = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markIdempotent(ctx, req.IdempotencyKey)

	s.logger.Info("order placed",
		zap.String("order_id", response.ID),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(response.Items)))

	return response, nil
}

// debitStock decrements a variant's stock. A variant that never had an
// inventory record is treated as stock zero. Callers validate the
// quantity before the transaction opens.
func (s *FulfillmentService) debitStock(ctx context.Context, repos appledger.TransactionalRepositories, variantID uuid.UUID, quantity int64) error {
	record, err := repos.Records().FindByVariantID(ctx, variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ledger.InsufficientStockError{VariantID: variantID, Available: 0, Requested: quantity}
		}
		return err
	}

	if err := record.Decrement(quantity); err != nil {
		return err
	}
	return repos.Records().SaveWithLock(ctx, record)
}

// creditStock returns every line of an order to the ledger
func (s *FulfillmentService) creditStock(ctx context.Context, repos appledger.TransactionalRepositories, order *fulfillment.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		record, err := repos.Records().GetOrCreate(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if err := record.Increment(item.Quantity); err != nil {
			return err
		}
		if err := repos.Records().SaveWithLock(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus moves an order along its lifecycle. Transitions into
// CANCELLED or REFUNDED return the order's stock to the ledger in the
// same transaction as the status change.
func (s *FulfillmentService) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, target fulfillment.OrderStatus) (*OrderResponse, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}

	var response *OrderResponse
	err := appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		order, err := s.applyStatus(ctx, repos, orderID, target)
		if err != nil {
			return err
		}

		if action, audited := statusAuditAction(target); audited {
			entry, err := audit.NewEntry(actorID, action,
				"order", order.ID.String(),
				fmt.Sprintf("status=%s items=%d total=%s", target, len(order.Items), order.Total))
			if err != nil {
				return err
			}
			if err := repos.Audit().Append(ctx, entry); err != nil {
				return err
			}
		}

		resp := ToOrderResponse(order)
		response = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", target.String()))

	return response, nil
}

// applyStatus transitions a single order and, for stock-reversing
// targets, credits its lines back to the ledger within the caller's
// transaction.
func (s *FulfillmentService) applyStatus(ctx context.Context, repos appledger.TransactionalRepositories, orderID uuid.UUID, target fulfillment.OrderStatus) (*fulfillment.Order, error) {
	order, err := repos.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionStatus(target); err != nil {
		return nil, err
	}

	if target.ReversesStock() {
		if err := s.creditStock(ctx, repos, order); err != nil {
			return nil, err
		}
	}

	if err := repos.Orders().SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// statusAuditAction maps a target status to its audit action. Only
// stock-moving transitions leave a trail.
func statusAuditAction(target fulfillment.OrderStatus) (audit.Action, bool) {
	switch target {
	case fulfillment.OrderStatusCancelled:
		return audit.ActionOrderCancelled, true
	case fulfillment.OrderStatusRefunded:
		return audit.ActionOrderRefunded, true
	}
	return "", false
}

// CancelOrder cancels an order and returns its stock to the ledger
func (s *FulfillmentService) CancelOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.UpdateStatus(ctx, actorID, orderID, fulfillment.OrderStatusCancelled)
}

// RefundOrder refunds a confirmed or delivered order and returns its
// stock to the ledger
func (s *FulfillmentService) RefundOrder(ctx context.Context, actorID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.UpdateStatus(ctx, actorID, orderID, fulfillment.OrderStatusRefunded)
}

// BulkUpdateStatus applies the same transition to every listed order
// within one transaction, together with any stock reversal the target
// implies. The first order that cannot make the transition rolls the
// whole batch back. One summary audit entry covers the batch.
func (s *FulfillmentService) BulkUpdateStatus(ctx context.Context, actorID uuid.UUID, orderIDs []uuid.UUID, target fulfillment.OrderStatus) ([]BulkUpdateOutcome, error) {
	if len(orderIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one order ID is required")
	}
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}

	var outcomes []BulkUpdateOutcome
	err := appledger.ExecuteWithRetry(ctx, s.scope, func(repos appledger.TransactionalRepositories) error {
		outcomes = outcomes[:0]
		for _, id := range orderIDs {
			if _, err := s.applyStatus(ctx, repos, id, target); err != nil {
				return fmt.Errorf("order %s: %w", id, err)
			}
			outcomes = append(outcomes, BulkUpdateOutcome{OrderID: id.String(), Success: true})
		}

		entry, err := audit.NewEntry(actorID, audit.ActionOrderBulkUpdate,
			"order", "bulk",
			fmt.Sprintf("target=%s orders=%d", target, len(orderIDs)))
		if err != nil {
			return err
		}
		return repos.Audit().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("orders bulk updated",
		zap.String("status", target.String()),
		zap.Int("orders", len(orderIDs)))

	return outcomes, nil
}

// GetOrder returns a single order with its items
func (s *FulfillmentService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ListOrders returns orders with pagination
func (s *FulfillmentService) ListOrders(ctx context.Context, filter shared.Filter) ([]OrderResponse, int64, error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	return responses, total, nil
}

// ListOrdersByUser returns a customer's orders
func (s *FulfillmentService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	return responses, nil
}

// checkIdempotency rejects a key that has already completed a checkout
func (s *FulfillmentService) checkIdempotency(ctx context.Context, key string) error {
	if s.idemStore == nil || !s.idemConfig.Enabled || key == "" {
		return nil
	}
	processed, err := s.idemStore.IsProcessed(ctx, key)
	if err != nil {
		return err
	}
	if processed {
		return shared.NewDomainError("DUPLICATE_REQUEST", "This checkout has already been processed")
	}
	return nil
}

// markIdempotent records a completed checkout key. Failures are logged
// and swallowed: the order is already committed.
func (s *FulfillmentService) markIdempotent(ctx context.Context, key string) {
	if s.idemStore == nil || !s.idemConfig.Enabled || key == "" {
		return
	}
	if _, err := s.idemStore.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
		s.logger.Warn("failed to mark idempotency key", zap.Error(err))
	}
}
