package handler

import (
	"time"

	exposureapp "github.com/digistore/backend/internal/application/exposure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExposureHandler handles the storefront-facing read API: stock level
// classification, incoming deliveries, warranty state and purchase
// history per variant.
type ExposureHandler struct {
	BaseHandler
	exposureService *exposureapp.ExposureService
}

// NewExposureHandler creates a new ExposureHandler
func NewExposureHandler(exposureService *exposureapp.ExposureService) *ExposureHandler {
	return &ExposureHandler{
		exposureService: exposureService,
	}
}

// ===================== Request/Response Types for Swagger =====================

// StockLevelBulkRequest represents a bulk stock classification request
// @Description Request body for classifying stock levels of several variants at once
type StockLevelBulkRequest struct {
	VariantIDs []string `json:"variant_ids" binding:"required,min=1,dive,uuid"`
}

// ===================== Query Handlers =====================

// GetStockLevel godoc
// @ID           getVariantStockLevel
// @Summary      Get stock level
// @Description  Classify a variant's on-hand quantity into a display level. Unknown variants classify as out of stock.
// @Tags         storefront
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[exposureapp.StockClassification]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /storefront/variants/{variant_id}/stock-level [get]
func (h *ExposureHandler) GetStockLevel(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	classification, err := h.exposureService.ClassifyStock(c.Request.Context(), variantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, classification)
}

// GetStockLevelBulk godoc
// @ID           getVariantStockLevelBulk
// @Summary      Bulk stock levels
// @Description  Classify stock levels for several variants in one call, in request order
// @Tags         storefront
// @Accept       json
// @Produce      json
// @Param        request body StockLevelBulkRequest true "Variant IDs"
// @Success      200 {object} APIResponse[[]exposureapp.StockClassification]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /storefront/stock-levels [post]
func (h *ExposureHandler) GetStockLevelBulk(c *gin.Context) {
	var req StockLevelBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	variantIDs := make([]uuid.UUID, 0, len(req.VariantIDs))
	for _, raw := range req.VariantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid variant ID format: "+raw)
			return
		}
		variantIDs = append(variantIDs, id)
	}

	classifications, err := h.exposureService.ClassifyStockBulk(c.Request.Context(), variantIDs)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, classifications)
}

// GetPendingImports godoc
// @ID           getVariantPendingImports
// @Summary      Get incoming deliveries
// @Description  List supplier batches containing this variant that have been ordered but not yet completed
// @Tags         storefront
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[[]exposureapp.PendingImportResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /storefront/variants/{variant_id}/pending-imports [get]
func (h *ExposureHandler) GetPendingImports(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	pending, err := h.exposureService.GetPendingImportsForVariant(c.Request.Context(), variantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, pending)
}

// GetWarranty godoc
// @ID           getVariantWarranty
// @Summary      Get warranty state
// @Description  Derive the warranty state for a variant from its most recent completed purchase
// @Tags         storefront
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[exposureapp.WarrantyResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /storefront/variants/{variant_id}/warranty [get]
func (h *ExposureHandler) GetWarranty(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	result, err := h.exposureService.GetWarrantyForVariant(c.Request.Context(), variantID, time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetHistory godoc
// @ID           getVariantHistory
// @Summary      Get purchase history
// @Description  List completed purchases of a variant, newest first, annotated with warranty state at read time
// @Tags         storefront
// @Produce      json
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[exposureapp.HistoryResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /storefront/variants/{variant_id}/history [get]
func (h *ExposureHandler) GetHistory(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID format")
		return
	}

	history, err := h.exposureService.GetHistory(c.Request.Context(), variantID, time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// RegisterRoutes registers all storefront exposure routes
func (h *ExposureHandler) RegisterRoutes(rg *gin.RouterGroup) {
	storefront := rg.Group("/storefront")
	{
		storefront.GET("/variants/:variant_id/stock-level", h.GetStockLevel)
		storefront.GET("/variants/:variant_id/pending-imports", h.GetPendingImports)
		storefront.GET("/variants/:variant_id/warranty", h.GetWarranty)
		storefront.GET("/variants/:variant_id/history", h.GetHistory)
		storefront.POST("/stock-levels", h.GetStockLevelBulk)
	}
}
