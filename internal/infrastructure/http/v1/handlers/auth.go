package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/auth"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves /auth: sessions for email/password users.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// bindCall binds a Req body, runs call and writes its result with status.
// A nil result with no error writes 204.
func bindCall[Req any](h *BaseHandler, c *gin.Context, status int, call func(context.Context, Req) (any, error)) {
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := call(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	if resp == nil {
		h.NoContent(c)
		return
	}
	c.JSON(status, resp)
}

// Signup handles POST /auth/signup. The first session is returned right away.
func (h *AuthHandler) Signup(c *gin.Context) {
	bindCall(h.BaseHandler, c, http.StatusCreated, func(ctx context.Context, req dto.SignupRequest) (any, error) {
		session, err := h.service.Signup(ctx, req.ToAuthRequest(c.Request.UserAgent(), c.ClientIP()))
		if err != nil {
			return nil, err
		}
		return dto.FromSession(session), nil
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	bindCall(h.BaseHandler, c, http.StatusOK, func(ctx context.Context, req dto.LoginRequest) (any, error) {
		session, err := h.service.Login(ctx, req.ToCredentials(c.Request.UserAgent(), c.ClientIP()))
		if err != nil {
			return nil, err
		}
		return dto.FromSession(session), nil
	})
}

// Refresh handles POST /auth/refresh. The old refresh token is rotated out.
func (h *AuthHandler) Refresh(c *gin.Context) {
	bindCall(h.BaseHandler, c, http.StatusOK, func(ctx context.Context, req dto.RefreshTokenRequest) (any, error) {
		tokens, err := h.service.Refresh(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		return dto.FromTokenPair(tokens), nil
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	bindCall(h.BaseHandler, c, http.StatusNoContent, func(ctx context.Context, req dto.RefreshTokenRequest) (any, error) {
		return nil, h.service.Logout(ctx, req.RefreshToken)
	})
}

// LogoutAll handles POST /auth/logout-all: every session of the caller ends.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}
	if err := h.service.LogoutAll(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// ListPermissions handles GET /auth/permissions
func (h *AuthHandler) ListPermissions(c *gin.Context) {
	h.OK(c, gin.H{"items": h.service.ListPermissions()})
}

// RegisterRoutes mounts the routes; limit guards signup and login.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup, limit gin.HandlerFunc) {
	public.POST("/signup", limit, h.Signup)
	public.POST("/login", limit, h.Login)
	public.POST("/refresh", h.Refresh)
	public.POST("/logout", h.Logout)

	protected.POST("/logout-all", h.LogoutAll)
	protected.GET("/me", h.Me)
	protected.GET("/permissions", h.ListPermissions)
}
