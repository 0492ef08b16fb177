package handler

import (
	"time"

	importapp "github.com/digistore/backend/internal/application/import"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/shared"
	csvimport "github.com/digistore/backend/internal/infrastructure/import"
	"github.com/digistore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportHandler handles import batch API endpoints
type ImportHandler struct {
	BaseHandler
	importService *importapp.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *importapp.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// ===================== Request/Response Types for Swagger =====================

// CreateImportBatchItemRequest represents one line of a new import batch
// @Description One variant line of a supplier delivery
type CreateImportBatchItemRequest struct {
	VariantID          string     `json:"variant_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity           int64      `json:"quantity" binding:"required,gt=0" example:"25"`
	NetPrice           float64    `json:"net_price" binding:"gte=0" example:"7.50"`
	WarrantyPeriodDays *int       `json:"warranty_period_days" example:"365"`
	WarrantyExpiry     *time.Time `json:"warranty_expiry" example:"2025-12-31T00:00:00Z"`
	Notes              string     `json:"notes" example:"Region-locked keys"`
}

// CreateImportBatchRequest represents a request to record a supplier delivery
// @Description Request body for creating an import batch
type CreateImportBatchRequest struct {
	SupplierID  string                         `json:"supplier_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Reference   string                         `json:"reference" example:"INV-2024-0042"`
	TotalAmount *float64                       `json:"total_amount" example:"187.50"`
	Items       []CreateImportBatchItemRequest `json:"items" binding:"required,min=1,dive"`
}

// TransitionImportStatusRequest represents an import status change
// @Description Request body for moving an import batch to a new lifecycle status
type TransitionImportStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT PENDING PROCESSING COMPLETED CANCELLED" example:"COMPLETED"`
}

// TransitionPaymentStatusRequest represents a payment status change
// @Description Request body for moving an import batch to a new payment status
type TransitionPaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PARTIALLY_PAID PAID CANCELLED" example:"PAID"`
}

// BulkTransitionImportStatusRequest represents a bulk import status change
// @Description Request body for moving several import batches to the same status
type BulkTransitionImportStatusRequest struct {
	BatchIDs []string `json:"batch_ids" binding:"required,min=1,dive,uuid"`
	Status   string   `json:"status" binding:"required,oneof=DRAFT PENDING PROCESSING COMPLETED CANCELLED" example:"PROCESSING"`
}

type listImportBatchesQuery struct {
	SupplierID      string `form:"supplier_id" binding:"omitempty,uuid"`
	UserID          string `form:"user_id" binding:"omitempty,uuid"`
	ImportStatus    string `form:"import_status" binding:"omitempty,oneof=DRAFT PENDING PROCESSING COMPLETED CANCELLED"`
	PaymentStatus   string `form:"payment_status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID CANCELLED"`
	Reference       string `form:"reference"`
	CompletedAfter  string `form:"completed_after"`
	CompletedBefore string `form:"completed_before"`
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q listImportBatchesQuery) toFilter() (shared.Filter, error) {
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
	if q.SupplierID != "" {
		filter.Filters["supplier_id"] = q.SupplierID
	}
	if q.UserID != "" {
		filter.Filters["user_id"] = q.UserID
	}
	if q.ImportStatus != "" {
		filter.Filters["import_status"] = q.ImportStatus
	}
	if q.PaymentStatus != "" {
		filter.Filters["payment_status"] = q.PaymentStatus
	}
	if q.Reference != "" {
		filter.Filters["reference"] = q.Reference
	}
	if q.CompletedAfter != "" {
		t, err := parseDateTime(q.CompletedAfter)
		if err != nil {
			return filter, err
		}
		filter.Filters["completed_after"] = t
	}
	if q.CompletedBefore != "" {
		t, err := parseDateTime(q.CompletedBefore)
		if err != nil {
			return filter, err
		}
		filter.Filters["completed_before"] = t
	}
	return filter, nil
}

// ===================== Command Handlers =====================

// CreateBatch godoc
// @ID           createImportBatch
// @Summary      Create import batch
// @Description  Record a supplier delivery as a draft import batch. Stock is credited only when the batch completes.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body CreateImportBatchRequest true "Batch details"
// @Success      201 {object} APIResponse[importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports [post]
func (h *ImportHandler) CreateBatch(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	var req CreateImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]importapp.CreateImportBatchItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, importapp.CreateImportBatchItemRequest{
			VariantID:          item.VariantID,
			Quantity:           item.Quantity,
			NetPrice:           toDecimal(item.NetPrice),
			WarrantyPeriodDays: item.WarrantyPeriodDays,
			WarrantyExpiry:     item.WarrantyExpiry,
			Notes:              item.Notes,
		})
	}

	appReq := importapp.CreateImportBatchRequest{
		SupplierID: req.SupplierID,
		Reference:  req.Reference,
		Items:      items,
	}
	if req.TotalAmount != nil {
		appReq.TotalAmount = toDecimalPtr(*req.TotalAmount)
	}

	batch, err := h.importService.CreateBatch(c.Request.Context(), actorID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, batch)
}

// CreateBatchFromCSV godoc
// @ID           createImportBatchFromCSV
// @Summary      Create import batch from CSV
// @Description  Record a supplier delivery from an uploaded CSV file. Required columns: variant_id, quantity, net_price. Optional: warranty_period_days, warranty_expiry, notes. The file is rejected as a whole if any row is invalid.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Param        supplier_id formData string true "Supplier ID" format(uuid)
// @Param        reference formData string false "Supplier reference"
// @Param        total_amount formData string false "Agreed total, defaults to the sum of line amounts"
// @Success      201 {object} APIResponse[importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports/csv [post]
func (h *ImportHandler) CreateBatchFromCSV(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	supplierID := c.PostForm("supplier_id")
	if _, err := uuid.Parse(supplierID); err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "CSV file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	lines, rowErrs, err := csvimport.NewBatchLineReader().Read(file)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if rowErrs.HasErrors() {
		h.BadRequest(c, rowErrs.String())
		return
	}

	items := make([]importapp.CreateImportBatchItemRequest, 0, len(lines))
	for _, line := range lines {
		items = append(items, importapp.CreateImportBatchItemRequest{
			VariantID:          line.VariantID.String(),
			Quantity:           line.Quantity,
			NetPrice:           line.NetPrice,
			WarrantyPeriodDays: line.WarrantyPeriodDays,
			WarrantyExpiry:     line.WarrantyExpiry,
			Notes:              line.Notes,
		})
	}

	appReq := importapp.CreateImportBatchRequest{
		SupplierID: supplierID,
		Reference:  c.PostForm("reference"),
		Items:      items,
	}
	if raw := c.PostForm("total_amount"); raw != "" {
		total, err := decimal.NewFromString(raw)
		if err != nil {
			h.BadRequest(c, "Invalid total amount")
			return
		}
		appReq.TotalAmount = &total
	}

	batch, err := h.importService.CreateBatch(c.Request.Context(), actorID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, batch)
}

// TransitionStatus godoc
// @ID           transitionImportStatus
// @Summary      Transition import status
// @Description  Move an import batch along its lifecycle. Completing a batch credits stock for every line.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        request body TransitionImportStatusRequest true "Target status"
// @Success      200 {object} APIResponse[importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id}/status [post]
func (h *ImportHandler) TransitionStatus(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req TransitionImportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.importService.TransitionImportStatus(c.Request.Context(), actorID, batchID, imports.ImportStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// TransitionPaymentStatus godoc
// @ID           transitionImportPaymentStatus
// @Summary      Transition payment status
// @Description  Move an import batch to a new payment status. Payment state is independent of the import lifecycle.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        request body TransitionPaymentStatusRequest true "Target status"
// @Success      200 {object} APIResponse[importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id}/payment-status [post]
func (h *ImportHandler) TransitionPaymentStatus(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req TransitionPaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.importService.TransitionPaymentStatus(c.Request.Context(), batchID, imports.PaymentStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// BulkTransitionStatus godoc
// @ID           bulkTransitionImportStatus
// @Summary      Bulk transition import status
// @Description  Move several import batches to the same status. Each batch succeeds or fails independently.
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body BulkTransitionImportStatusRequest true "Batch IDs and target status"
// @Success      200 {object} APIResponse[[]importapp.BulkTransitionOutcome]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports/bulk/status [post]
func (h *ImportHandler) BulkTransitionStatus(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user ID")
		return
	}

	var req BulkTransitionImportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batchIDs := make([]uuid.UUID, 0, len(req.BatchIDs))
	for _, raw := range req.BatchIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid batch ID format: "+raw)
			return
		}
		batchIDs = append(batchIDs, id)
	}

	outcomes, err := h.importService.BulkTransitionImportStatus(c.Request.Context(), actorID, batchIDs, imports.ImportStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, outcomes)
}

// ===================== Query Handlers =====================

// GetBatch godoc
// @ID           getImportBatch
// @Summary      Get import batch by ID
// @Description  Retrieve a single import batch with its lines
// @Tags         imports
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id} [get]
func (h *ImportHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.importService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// ListBatches godoc
// @ID           listImportBatches
// @Summary      List import batches
// @Description  Retrieve import batches with filtering and pagination
// @Tags         imports
// @Produce      json
// @Param        supplier_id query string false "Filter by supplier ID" format(uuid)
// @Param        user_id query string false "Filter by creating user" format(uuid)
// @Param        import_status query string false "Filter by import status" Enums(DRAFT, PENDING, PROCESSING, COMPLETED, CANCELLED)
// @Param        payment_status query string false "Filter by payment status" Enums(PENDING, PARTIALLY_PAID, PAID, CANCELLED)
// @Param        reference query string false "Filter by supplier reference"
// @Param        completed_after query string false "Completed on or after (RFC3339 or date)"
// @Param        completed_before query string false "Completed before (RFC3339 or date)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]importapp.ImportBatchResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /imports [get]
func (h *ImportHandler) ListBatches(c *gin.Context) {
	var query listImportBatchesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid datetime filter: "+err.Error())
		return
	}

	batches, total, err := h.importService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// RegisterRoutes registers all import batch routes. Imports are a
// back-office surface; every route requires the admin role.
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	importGroup := rg.Group("/imports", middleware.RequireAdmin())
	{
		importGroup.POST("", h.CreateBatch)
		importGroup.POST("/csv", h.CreateBatchFromCSV)
		importGroup.GET("", h.ListBatches)
		importGroup.GET("/:id", h.GetBatch)
		importGroup.POST("/:id/status", h.TransitionStatus)
		importGroup.POST("/:id/payment-status", h.TransitionPaymentStatus)
		importGroup.POST("/bulk/status", h.BulkTransitionStatus)
	}
}
