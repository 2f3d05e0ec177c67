package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

// HistoryReader returns the audit trail of one entity.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// LedgerHandler serves the read side of payables, receivables, cash ledgers
// and the stock register.
type LedgerHandler struct {
	*BaseHandler
	ledger  *ledger.Service
	history HistoryReader
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service, history HistoryReader) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		ledger:      service,
		history:     history,
	}
}

// ListPayables handles GET /account-payable
func (h *LedgerHandler) ListPayables(c *gin.Context) {
	filter, ok := h.DatedFilter(c)
	if !ok {
		return
	}
	res, err := h.ledger.ListPayables(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// GetPayable handles GET /account-payable/:id
func (h *LedgerHandler) GetPayable(c *gin.Context) {
	payableID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.ledger.GetPayable(c.Request.Context(), payableID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// PayableHistory handles GET /account-payable/:id/history
func (h *LedgerHandler) PayableHistory(c *gin.Context) {
	h.entityHistory(c, ledger.EntityPayable, func(ctx context.Context, entityID id.ID) error {
		_, err := h.ledger.GetPayable(ctx, entityID)
		return err
	})
}

// ListReceivables handles GET /account-receivable
func (h *LedgerHandler) ListReceivables(c *gin.Context) {
	filter, ok := h.DatedFilter(c)
	if !ok {
		return
	}
	res, err := h.ledger.ListReceivables(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// GetReceivable handles GET /account-receivable/:id
func (h *LedgerHandler) GetReceivable(c *gin.Context) {
	receivableID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	r, err := h.ledger.GetReceivable(c.Request.Context(), receivableID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// ReceivableHistory handles GET /account-receivable/:id/history
func (h *LedgerHandler) ReceivableHistory(c *gin.Context) {
	h.entityHistory(c, ledger.EntityReceivable, func(ctx context.Context, entityID id.ID) error {
		_, err := h.ledger.GetReceivable(ctx, entityID)
		return err
	})
}

// entityHistory checks the record exists and returns its audit entries, newest first.
func (h *LedgerHandler) entityHistory(c *gin.Context, entityType string, exists func(ctx context.Context, entityID id.ID) error) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := exists(ctx, entityID); err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.history.GetEntityHistory(ctx, entityType, entityID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// ListCash returns the list handler of one cash ledger.
func (h *LedgerHandler) ListCash(side ledger.Side, method ledger.Method) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := h.DatedFilter(c)
		if !ok {
			return
		}
		res, err := h.ledger.ListCash(c.Request.Context(), side, method, filter)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, res)
	}
}

// GetCash returns the detail handler of one cash ledger.
func (h *LedgerHandler) GetCash(side ledger.Side, method ledger.Method) gin.HandlerFunc {
	return func(c *gin.Context) {
		cashID, ok := h.ParseID(c, "id")
		if !ok {
			return
		}
		rec, err := h.ledger.GetCash(c.Request.Context(), side, method, cashID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, rec)
	}
}

// ProductMovements handles GET /products/:id/movements
func (h *LedgerHandler) ProductMovements(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	filter, ok := h.DatedFilter(c)
	if !ok {
		return
	}
	res, err := h.ledger.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
