package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// UsersHandler serves user and role administration.
type UsersHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(base *BaseHandler, service *auth.Service) *UsersHandler {
	return &UsersHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListUsers handles GET /users
func (h *UsersHandler) ListUsers(c *gin.Context) {
	filter := auth.UserFilter{
		Search:   c.Query("search"),
		RoleCode: c.Query("role"),
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("isActive"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &active
		}
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, len(users))
	for i := range users {
		items[i] = dto.FromUser(&users[i])
	}
	h.OK(c, dto.ListResponse[dto.UserResponse]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// GetUser handles GET /users/:id
func (h *UsersHandler) GetUser(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// CreateUser handles POST /users
func (h *UsersHandler) CreateUser(c *gin.Context) {
	var req dto.UserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(user))
}

// UpdateUser handles PUT /users/:id
func (h *UsersHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.UpdateUser(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// DeleteUser handles DELETE /users/:id
func (h *UsersHandler) DeleteUser(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AssignRole handles POST /users/:id/roles
func (h *UsersHandler) AssignRole(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.AssignRole(c.Request.Context(), userID, req.RoleCode)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// RevokeRole handles DELETE /users/:id/roles/:code
func (h *UsersHandler) RevokeRole(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.RevokeRole(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// ListRoles handles GET /roles
func (h *UsersHandler) ListRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.RoleResponse, len(roles))
	for i := range roles {
		items[i] = dto.FromRole(&roles[i])
	}
	h.OK(c, gin.H{"items": items})
}

// GetRole handles GET /roles/:id
func (h *UsersHandler) GetRole(c *gin.Context) {
	roleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	role, err := h.service.GetRole(c.Request.Context(), roleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRole(role))
}

// CreateRole handles POST /roles
func (h *UsersHandler) CreateRole(c *gin.Context) {
	var req dto.RoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	role, err := h.service.CreateRole(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRole(role))
}

// UpdateRole handles PUT /roles/:id
func (h *UsersHandler) UpdateRole(c *gin.Context) {
	roleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	role, err := h.service.UpdateRole(c.Request.Context(), roleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRole(role))
}

// DeleteRole handles DELETE /roles/:id
func (h *UsersHandler) DeleteRole(c *gin.Context) {
	roleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(c.Request.Context(), roleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
