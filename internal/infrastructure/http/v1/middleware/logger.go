package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bizbook/pkg/logger"
)

// Logger attaches log to the request context and writes one line per request.
// Probe endpoints are logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			kv = append(kv, "error", strings.TrimSpace(errs))
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case path == "/health" || path == "/ready":
			l.Debugw("http request", kv...)
		case status >= 500:
			l.Errorw("http request", kv...)
		case status >= 400:
			l.Warnw("http request", kv...)
		default:
			l.Infow("http request", kv...)
		}
	}
}
