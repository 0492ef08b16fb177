package handler

import (
	fulfillmentapp "github.com/digistore/backend/internal/application/fulfillment"
	"github.com/digistore/backend/internal/domain/fulfillment"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-chosen checkout key. A key in
// the request body takes precedence over the header.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// OrderHandler handles customer order API endpoints
type OrderHandler struct {
	BaseHandler
	fulfillmentService *fulfillmentapp.FulfillmentService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(fulfillmentService *fulfillmentapp.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		fulfillmentService: fulfillmentService,
	}
}

// ===================== Request/Response Types for Swagger =====================

// PlaceOrderItemRequest represents one line of a checkout
// @Description One variant line of a checkout. Prices are storefront snapshots taken at checkout time.
type PlaceOrderItemRequest struct {
	VariantID   string  `json:"variant_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity    int64   `json:"quantity" binding:"required,gt=0" example:"2"`
	RetailPrice float64 `json:"retail_price" binding:"gte=0" example:"19.99"`
	NetPrice    float64 `json:"net_price" binding:"gte=0" example:"12.50"`
}

// PlaceOrderRequest represents a checkout submission
// @Description Request body for placing an order
type PlaceOrderRequest struct {
	Items          []PlaceOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes          string                  `json:"notes" example:"Gift purchase"`
	IdempotencyKey string                  `json:"idempotency_key" example:"checkout-7f3a2b"`
}

// TransitionOrderStatusRequest represents an order status change
// @Description Request body for moving an order to a new status
type TransitionOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PROCESSING CONFIRMED DELIVERED CANCELLED REFUNDED" example:"CONFIRMED"`
}

// BulkUpdateOrderStatusRequest represents a bulk order status change
// @Description Request body for moving several orders to the same status
type BulkUpdateOrderStatusRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1,dive,uuid"`
	Status   string   `json:"status" binding:"required,oneof=PROCESSING CONFIRMED DELIVERED CANCELLED REFUNDED" example:"DELIVERED"`
}

type listOrdersQuery struct {
	UserID        string `form:"user_id" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=PROCESSING CONFIRMED DELIVERED CANCELLED REFUNDED"`
	CreatedAfter  string `form:"created_after"`
	CreatedBefore string `form:"created_before"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q listOrdersQuery) toFilter() (shared.Filter, error) {
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	if q.UserID != "" {
		filter.Filters["user_id"] = q.UserID
	}
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}
	if q.CreatedAfter != "" {
		t, err := parseDateTime(q.CreatedAfter)
		if err != nil {
			return filter, err
		}
		filter.Filters["created_after"] = t
	}
	if q.CreatedBefore != "" {
		t, err := parseDateTime(q.CreatedBefore)
		if err != nil {
			return filter, err
		}
		filter.Filters["created_before"] = t
	}
	return filter, nil
}

// ===================== Command Handlers =====================

// PlaceOrder godoc
// @ID           placeOrder
// @Summary      Place an order
// @Description  Submit a checkout. Stock is debited atomically for every line; the whole order fails if any line lacks stock.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string false "Idempotency key; the body field takes precedence"
// @Param        request body PlaceOrderRequest true "Checkout details"
// @Success      201 {object} APIResponse[fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	items := make([]fulfillmentapp.PlaceOrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, fulfillmentapp.PlaceOrderItemRequest{
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			RetailPrice: toDecimal(item.RetailPrice),
			NetPrice:    toDecimal(item.NetPrice),
		})
	}

	order, err := h.fulfillmentService.PlaceOrder(c.Request.Context(), userID, fulfillmentapp.PlaceOrderRequest{
		Items:          items,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// TransitionStatus godoc
// @ID           transitionOrderStatus
// @Summary      Transition order status
// @Description  Move an order along its lifecycle. Cancelling or refunding restocks every line.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body TransitionOrderStatusRequest true "Target status"
// @Success      200 {object} APIResponse[fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/status [post]
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req TransitionOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.fulfillmentService.UpdateStatus(c.Request.Context(), actorID, orderID, fulfillment.OrderStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel an order
// @Description  Cancel an order and restock every line
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.fulfillmentService.CancelOrder(c.Request.Context(), actorID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Refund godoc
// @ID           refundOrder
// @Summary      Refund an order
// @Description  Refund a delivered order and restock every line
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.fulfillmentService.RefundOrder(c.Request.Context(), actorID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// BulkTransitionStatus godoc
// @ID           bulkTransitionOrderStatus
// @Summary      Bulk transition order status
// @Description  Move several orders to the same status in one transaction. An order that cannot make the transition aborts the whole batch.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body BulkUpdateOrderStatusRequest true "Order IDs and target status"
// @Success      200 {object} APIResponse[[]fulfillmentapp.BulkUpdateOutcome]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/bulk/status [post]
func (h *OrderHandler) BulkTransitionStatus(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	var req BulkUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderIDs := make([]uuid.UUID, 0, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid order ID format: "+raw)
			return
		}
		orderIDs = append(orderIDs, id)
	}

	outcomes, err := h.fulfillmentService.BulkUpdateStatus(c.Request.Context(), actorID, orderIDs, fulfillment.OrderStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, outcomes)
}

// ===================== Query Handlers =====================

// GetOrder godoc
// @ID           getOrder
// @Summary      Get order by ID
// @Description  Retrieve a single order with its lines
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.fulfillmentService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  Retrieve orders with filtering and pagination
// @Tags         orders
// @Produce      json
// @Param        user_id query string false "Filter by customer" format(uuid)
// @Param        status query string false "Filter by status" Enums(PROCESSING, CONFIRMED, DELIVERED, CANCELLED, REFUNDED)
// @Param        created_after query string false "Created on or after (RFC3339 or date)"
// @Param        created_before query string false "Created before (RFC3339 or date)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid datetime filter: "+err.Error())
		return
	}

	orders, total, err := h.fulfillmentService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// ListMine godoc
// @ID           listMyOrders
// @Summary      List my orders
// @Description  Retrieve the authenticated customer's orders, newest first
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]fulfillmentapp.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/my [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	var query listOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid datetime filter: "+err.Error())
		return
	}

	orders, err := h.fulfillmentService.ListOrdersByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, orders)
}

// RegisterRoutes registers all order routes. Placing an order and
// listing one's own orders are open to any authenticated user; the
// back-office operations require the admin role.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("/my", h.ListMine)

		admin := orders.Group("", middleware.RequireAdmin())
		{
			admin.GET("", h.List)
			admin.GET("/:id", h.GetOrder)
			admin.POST("/:id/status", h.TransitionStatus)
			admin.POST("/:id/cancel", h.Cancel)
			admin.POST("/:id/refund", h.Refund)
			admin.POST("/bulk/status", h.BulkTransitionStatus)
		}
	}
}
