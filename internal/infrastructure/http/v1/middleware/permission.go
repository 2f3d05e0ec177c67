// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
)

// RequirePermission checks that the caller holds "<module>:<action>".
// Admins automatically have all permissions.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		if !user.HasPermission(permission) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_permission", permission),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyPermission checks that the caller holds at least one of permissions.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, p := range permissions {
			if user.HasPermission(p) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", permissions),
		)
		c.Abort()
	}
}
