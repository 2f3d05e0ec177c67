// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/domain"
	domainFilter "bizbook/internal/domain/filter"
	"bizbook/internal/domain/reports"
	"bizbook/internal/infrastructure/export"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any, Resp any] struct {
	*BaseHandler
	service    *domain.CatalogService[T]
	entityName string

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) T
	mapToDTO     func(entity T) Resp
	exportTable  func(items []T) reports.Table
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Validatable, CreateDTO any, UpdateDTO any, Resp any] struct {
	Service      *domain.CatalogService[T]
	EntityName   string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) T
	MapToDTO     func(entity T) Resp
	// ExportTable enables GET /export; nil leaves the catalog without one.
	ExportTable func(items []T) reports.Table
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any, Resp any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO, Resp],
) *CatalogHandler[T, CreateDTO, UpdateDTO, Resp] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO, Resp]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
		exportTable:  cfg.ExportTable,
	}
}

// Exportable reports whether the catalog serves GET /export.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Exportable() bool {
	return h.exportTable != nil
}

func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) parseFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	// filter=[{"field":"email","operator":"contains","value":"@acme"}]
	if raw := c.Query("filter"); raw != "" {
		var items []domainFilter.Item
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return filter, false
		}
		filter.AdvancedFilters = items
	}
	return filter, true
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) List(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, h.mapToDTO))
}

// Get handles GET /{entity}/:id - get single entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(entity))
}

// Create handles POST /{entity} - create new entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.mapToDTO(entity))
}

// Update handles PUT /{entity}/:id - update existing entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated := h.mapUpdateDTO(req, existing)
	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(updated))
}

// Delete handles DELETE /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetDeletionMark handles POST /{entity}/:id/deletion-mark.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) SetDeletionMark(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), entityID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}

// Export handles GET /{entity}/export: every matching row as an XLSX sheet.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO, Resp]) Export(c *gin.Context) {
	if h.exportTable == nil {
		h.Error(c, apperror.NewNotFound("export", h.entityName))
		return
	}

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	filter.Limit = 0
	filter.Offset = 0

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	writeXLSX(c, h.entityName, h.exportTable(result.Items))
}

// writeXLSX streams a table as an attachment.
func writeXLSX(c *gin.Context, name string, table reports.Table) {
	c.Header("Content-Disposition", "attachment; filename="+export.Filename(name, time.Now().UTC()))
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, table); err != nil {
		_ = c.Error(apperror.NewInternal(err))
		c.Abort()
	}
}
