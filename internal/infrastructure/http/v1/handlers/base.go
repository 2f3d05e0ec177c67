package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindError("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, bindError("invalid query parameters", err))
		return false
	}
	return true
}

// bindError lists the failed fields of a validator error.
func bindError(msg string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(msg)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			fields[lowerFirst(fe.Field())] = rule
		}
		return appErr.WithDetail("fields", fields)
	}
	return appErr.WithDetail("error", err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Error registers the error on the gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a path parameter as an ID.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	v, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", param))
		return id.Nil(), false
	}
	return v, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// DatedFilter reads search, paging, orderBy and the from/to date range
// (YYYY-MM-DD, both inclusive) shared by documents and ledgers.
func (h *BaseHandler) DatedFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.OrderBy = c.Query("orderBy")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	var err error
	if filter.DateFrom, err = dto.OptionalDate("from", c.Query("from")); err == nil {
		filter.DateTo, err = dto.OptionalDate("to", c.Query("to"))
	}
	if err != nil {
		h.Error(c, err)
		return filter, false
	}
	return filter, true
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
