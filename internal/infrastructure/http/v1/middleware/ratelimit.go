package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"bizbook/internal/core/apperror"
	"bizbook/pkg/logger"
)

// NewIPLimiter builds an in-memory limiter from a formatted rate such as "5-M".
func NewIPLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP. Exceeding the limit yields 429.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		lc, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			_ = c.Error(apperror.NewInternal(err).WithDetail("component", "rate_limit"))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			logger.Warn(c.Request.Context(), "rate limit exceeded", "ip", ip, "path", c.FullPath(), "limit", lc.Limit)
			_ = c.Error(apperror.NewRateLimited(lc.Limit))
			c.Abort()
			return
		}

		c.Next()
	}
}
