package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checks  map[string]Pinger
	version string
}

// NewHealthHandler creates a health handler. checks maps a dependency name
// ("database", "redis") to its check.
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

// Live handles the liveness check (is the process alive?).
// GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready handles the readiness check (is the service ready to accept traffic?).
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "unhealthy: " + err.Error()
			continue
		}
		results[name] = "healthy"
	}

	text := "ok"
	if status != http.StatusOK {
		text = "error"
	}
	c.JSON(status, gin.H{
		"status": text,
		"checks": results,
	})
}
