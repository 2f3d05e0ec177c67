package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/pkg/logger"
)

// Recovery turns a panic into a 500 response and logs the stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", c.GetString("request_id")))
				c.Abort()
				renderError(c)
			}
		}()
		c.Next()
	}
}
