package handler

import (
	ledgerapp "github.com/digistore/backend/internal/application/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles inventory ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// ===================== Request/Response Types for Swagger =====================

// VariantQuantityResponse reports the on-hand quantity of one variant
// @Description On-hand quantity for a product variant
type VariantQuantityResponse struct {
	VariantID string `json:"variant_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity  int64  `json:"quantity" example:"42"`
}

// AdjustInventoryRequest represents a manual stock correction
// @Description Request body for an administrative stock adjustment. Exactly one of new_quantity or delta must be set.
type AdjustInventoryRequest struct {
	NewQuantity *int64 `json:"new_quantity" example:"10"`
	Delta       *int64 `json:"delta" example:"-3"`
	Reason      string `json:"reason" binding:"required,min=1,max=255" example:"Damaged units removed after stock count"`
}

type listInventoryQuery struct {
	VariantID   string `form:"variant_id" binding:"omitempty,uuid"`
	OutOfStock  *bool  `form:"out_of_stock"`
	HasStock    *bool  `form:"has_stock"`
	MinQuantity *int64 `form:"min_quantity"`
	MaxQuantity *int64 `form:"max_quantity"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q listInventoryQuery) toFilter() shared.Filter {
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
	if q.VariantID != "" {
		filter.Filters["variant_id"] = q.VariantID
	}
	if q.OutOfStock != nil {
		filter.Filters["out_of_stock"] = *q.OutOfStock
	}
	if q.HasStock != nil {
		filter.Filters["has_stock"] = *q.HasStock
	}
	if q.MinQuantity != nil {
		filter.Filters["min_quantity"] = *q.MinQuantity
	}
	if q.MaxQuantity != nil {
		filter.Filters["max_quantity"] = *q.MaxQuantity
	}
	return filter
}

// ===================== Query Handlers =====================

// List godoc
// @ID           listInventoryRecords
// @Summary      List inventory records
// @Description  Retrieve per-variant stock counters with filtering and pagination
// @Tags         inventory
// @Produce      json
// @Param        variant_id query string false "Filter by variant ID" format(uuid)
// @Param        out_of_stock query boolean false "Only variants with zero stock"
// @Param        has_stock query boolean false "Only variants with stock on hand"
// @Param        min_quantity query int false "Minimum quantity filter"
// @Param        max_quantity query int false "Maximum quantity filter"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]ledgerapp.InventoryRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/records [get]
func (h *LedgerHandler) List(c *gin.Context) {
	var query listInventoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := query.toFilter()
	records, total, err := h.ledgerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// GetRecord godoc
// @ID           getInventoryRecord
// @Summary      Get inventory record by variant
// @Description  Retrieve the stock counter for a single product variant
// @Tags         inventory
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[ledgerapp.InventoryRecordResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/variants/{variant_id} [get]
func (h *LedgerHandler) GetRecord(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	record, err := h.ledgerService.GetRecord(c.Request.Context(), variantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// GetQuantity godoc
// @ID           getVariantQuantity
// @Summary      Get on-hand quantity
// @Description  Retrieve the on-hand quantity for a variant. Variants with no ledger record report zero.
// @Tags         inventory
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[VariantQuantityResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/variants/{variant_id}/quantity [get]
func (h *LedgerHandler) GetQuantity(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	quantity, err := h.ledgerService.GetQuantity(c.Request.Context(), variantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, VariantQuantityResponse{
		VariantID: variantID.String(),
		Quantity:  quantity,
	})
}

// ===================== Command Handlers =====================

// AdjustInventory godoc
// @ID           adjustInventory
// @Summary      Adjust variant stock
// @Description  Apply an administrative stock correction, either to an absolute quantity or by a signed delta
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Param        request body AdjustInventoryRequest true "Adjustment details"
// @Success      200 {object} APIResponse[ledgerapp.AdjustInventoryResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/variants/{variant_id}/adjust [post]
func (h *LedgerHandler) AdjustInventory(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.AdjustInventory(c.Request.Context(), actorID, variantID, ledgerapp.AdjustInventoryRequest{
		NewQuantity: req.NewQuantity,
		Delta:       req.Delta,
		Reason:      req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all inventory ledger routes. The ledger is
// a back-office surface; every route requires the admin role.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory", middleware.RequireAdmin())
	{
		inventory.GET("/records", h.List)
		inventory.GET("/variants/:variant_id", h.GetRecord)
		inventory.GET("/variants/:variant_id/quantity", h.GetQuantity)
		inventory.POST("/variants/:variant_id/adjust", h.AdjustInventory)
	}
}
