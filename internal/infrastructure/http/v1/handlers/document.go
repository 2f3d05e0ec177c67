package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// DocumentService is what the document services expose to HTTP.
type DocumentService[T any] interface {
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByNumber(ctx context.Context, number string) (T, error)
	Create(ctx context.Context, doc T) error
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// BaseDocumentHandler serves the CRUD routes of one document type. Posting
// side effects happen inside the service; the handler only maps DTOs.
type BaseDocumentHandler[T any, CreateDTO any, UpdateDTO any, Resp any] struct {
	*BaseHandler
	service DocumentService[T]
	mapping BaseDocumentHandlerConfig[T, CreateDTO, UpdateDTO, Resp]
}

// BaseDocumentHandlerConfig wires a service and its DTO mappers.
type BaseDocumentHandlerConfig[T any, CreateDTO any, UpdateDTO any, Resp any] struct {
	Service      DocumentService[T]
	MapCreateDTO func(req CreateDTO) T
	MapUpdateDTO func(req UpdateDTO, existing T) T
	MapToDTO     func(doc T) Resp
}

func NewBaseDocumentHandler[T any, CreateDTO any, UpdateDTO any, Resp any](
	base *BaseHandler,
	cfg BaseDocumentHandlerConfig[T, CreateDTO, UpdateDTO, Resp],
) *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp] {
	return &BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]{
		BaseHandler: base,
		service:     cfg.Service,
		mapping:     cfg,
	}
}

// List handles GET /{documents}?search=&from=&to=&orderBy=&limit=&offset=
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) List(c *gin.Context) {
	filter, ok := h.DatedFilter(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, h.mapping.MapToDTO))
}

// Get handles GET /{documents}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (T, error) {
		return h.service.GetByID(ctx, docID)
	})
}

// GetByNumber handles GET /{documents}/number/:number
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	h.respond(c, func(ctx context.Context) (T, error) {
		return h.service.GetByNumber(ctx, number)
	})
}

// Create handles POST /{documents}. The response carries the assigned number.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}
	doc := h.mapping.MapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapping.MapToDTO(doc))
}

// Update handles PUT /{documents}/:id. The request version must match.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}
	h.respond(c, func(ctx context.Context) (T, error) {
		doc, err := h.service.GetByID(ctx, docID)
		if err != nil {
			return doc, err
		}
		doc = h.mapping.MapUpdateDTO(req, doc)
		return doc, h.service.Update(ctx, doc)
	})
}

// Delete handles DELETE /{documents}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// respond runs load and writes the mapped document with 200.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) respond(c *gin.Context, load func(context.Context) (T, error)) {
	doc, err := load(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapping.MapToDTO(doc))
}
