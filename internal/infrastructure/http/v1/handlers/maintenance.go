package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/pkg/logger"
)

// Migrator reports and applies schema migrations.
type Migrator interface {
	Status() (postgres.MigrationStatus, error)
	Up() (postgres.MigrationStatus, error)
}

// LedgerMaintainer runs the ledger repair jobs.
type LedgerMaintainer interface {
	RecalculateCounters(ctx context.Context) (ledger.CounterTotals, error)
	RefreshOverdue(ctx context.Context, now time.Time) (int64, error)
}

// MaintenanceHandler serves the admin operations on schema and ledgers.
type MaintenanceHandler struct {
	*BaseHandler
	migrator Migrator
	ledger   LedgerMaintainer
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(base *BaseHandler, migrator Migrator, ledger LedgerMaintainer) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: base,
		migrator:    migrator,
		ledger:      ledger,
	}
}

// MigrationStatus handles GET /migration
func (h *MaintenanceHandler) MigrationStatus(c *gin.Context) {
	status, err := h.migrator.Status()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	h.OK(c, status)
}

// MigrateUp handles POST /migration/up
func (h *MaintenanceHandler) MigrateUp(c *gin.Context) {
	status, err := h.migrator.Up()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	logger.Info(c.Request.Context(), "migrations applied via api",
		"version", status.Version,
		"applied", status.Applied)
	h.OK(c, status)
}

// Recount handles POST /maintenance/recount. A recount already running
// elsewhere yields 409.
func (h *MaintenanceHandler) Recount(c *gin.Context) {
	totals, err := h.ledger.RecalculateCounters(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, totals)
}

// RefreshOverdue handles POST /maintenance/overdue
func (h *MaintenanceHandler) RefreshOverdue(c *gin.Context) {
	n, err := h.ledger.RefreshOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"updated": n})
}
