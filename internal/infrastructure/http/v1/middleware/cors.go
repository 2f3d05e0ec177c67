package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the given origins; "*" or an empty list allows all.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()

	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}

	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Authorization", HeaderIdempotencyKey, HeaderRequestID)
	cfg.AddExposeHeaders("Content-Disposition", HeaderRequestID, HeaderTraceID)
	cfg.MaxAge = 12 * time.Hour

	return cors.New(cfg)
}
