package handler

import (
	auditapp "github.com/digistore/backend/internal/application/audit"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuditHandler handles audit trail API endpoints
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *auditapp.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

type listAuditEntriesQuery struct {
	ActorID       string `form:"actor_id" binding:"omitempty,uuid"`
	Action        string `form:"action"`
	EntityType    string `form:"entity_type"`
	CreatedAfter  string `form:"created_after"`
	CreatedBefore string `form:"created_before"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size" binding:"omitempty,max=100"`
}

func (q listAuditEntriesQuery) toFilter() (shared.Filter, error) {
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.ActorID != "" {
		filter.Filters["actor_id"] = q.ActorID
	}
	if q.Action != "" {
		filter.Filters["action"] = q.Action
	}
	if q.EntityType != "" {
		filter.Filters["entity_type"] = q.EntityType
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

// List godoc
// @ID           listAuditEntries
// @Summary      List audit entries
// @Description  Retrieve audit trail entries, newest first
// @Tags         audit
// @Produce      json
// @Param        actor_id query string false "Filter by acting user" format(uuid)
// @Param        action query string false "Filter by action"
// @Param        entity_type query string false "Filter by entity type"
// @Param        created_after query string false "Created on or after (RFC3339 or date)"
// @Param        created_before query string false "Created before (RFC3339 or date)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]auditapp.EntryResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /audit/entries [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query listAuditEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid datetime filter: "+err.Error())
		return
	}

	entries, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// ListByEntity godoc
// @ID           listAuditEntriesByEntity
// @Summary      Audit trail for one entity
// @Description  Retrieve the audit trail of a single entity, newest first
// @Tags         audit
// @Produce      json
// @Param        type path string true "Entity type" example(ImportBatch)
// @Param        id path string true "Entity ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]auditapp.EntryResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /audit/entities/{type}/{id} [get]
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	var query listAuditEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid datetime filter: "+err.Error())
		return
	}

	entries, err := h.auditService.ListByEntity(c.Request.Context(), c.Param("type"), c.Param("id"), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// RegisterRoutes registers all audit trail routes. The trail is a
// back-office surface; every route requires the admin role.
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	audit := rg.Group("/audit", middleware.RequireAdmin())
	{
		audit.GET("/entries", h.List)
		audit.GET("/entities/:type/:id", h.ListByEntity)
	}
}
