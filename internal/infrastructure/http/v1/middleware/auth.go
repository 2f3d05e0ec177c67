package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
)

// TokenValidator validates access tokens. Implemented by auth.Service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth validates the bearer token and puts the caller into the request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAdmin allows administrators only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !user.IsAdmin {
			_ = c.Error(apperror.NewForbidden("administrator access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
