package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bizbook/internal/domain/reports"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// rangeReport runs a range report and renders it as JSON.
func rangeReport[T any](h *ReportsHandler, run func(context.Context, reports.RangeFilter) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := h.bindRange(c)
		if !ok {
			return
		}
		report, err := run(c.Request.Context(), filter)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, report)
	}
}

// rangeExport runs a range report and streams it as an XLSX workbook.
func rangeExport[T any](
	h *ReportsHandler,
	name string,
	run func(context.Context, reports.RangeFilter) (T, error),
	table func(T) reports.Table,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := h.bindRange(c)
		if !ok {
			return
		}
		report, err := run(c.Request.Context(), filter)
		if err != nil {
			h.Error(c, err)
			return
		}
		writeXLSX(c, name, table(report))
	}
}

func (h *ReportsHandler) bindRange(c *gin.Context) (reports.RangeFilter, bool) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return reports.RangeFilter{}, false
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return reports.RangeFilter{}, false
	}
	return filter, true
}

// ProfitLoss handles GET /reports/profit-loss
func (h *ReportsHandler) ProfitLoss() gin.HandlerFunc {
	return rangeReport(h, h.service.ProfitLoss)
}

// ProfitLossExport handles GET /reports/profit-loss/export
func (h *ReportsHandler) ProfitLossExport() gin.HandlerFunc {
	return rangeExport(h, "profit-loss", h.service.ProfitLoss, reports.ProfitLossTable)
}

// Sales handles GET /reports/sales
func (h *ReportsHandler) Sales() gin.HandlerFunc {
	return rangeReport(h, h.service.Sales)
}

// SalesExport handles GET /reports/sales/export
func (h *ReportsHandler) SalesExport() gin.HandlerFunc {
	return rangeExport(h, "sales", h.service.Sales, reports.SalesTable)
}

// Purchases handles GET /reports/purchases
func (h *ReportsHandler) Purchases() gin.HandlerFunc {
	return rangeReport(h, h.service.Purchases)
}

// PurchasesExport handles GET /reports/purchases/export
func (h *ReportsHandler) PurchasesExport() gin.HandlerFunc {
	return rangeExport(h, "purchases", h.service.Purchases, reports.PurchasesTable)
}

// Expenses handles GET /reports/expenses
func (h *ReportsHandler) Expenses() gin.HandlerFunc {
	return rangeReport(h, h.service.Expenses)
}

// ExpensesExport handles GET /reports/expenses/export
func (h *ReportsHandler) ExpensesExport() gin.HandlerFunc {
	return rangeExport(h, "expenses", h.service.Expenses, reports.ExpensesTable)
}

// Stock handles GET /reports/stock
func (h *ReportsHandler) Stock() gin.HandlerFunc {
	return rangeReport(h, h.service.Stock)
}

// StockExport handles GET /reports/stock/export
func (h *ReportsHandler) StockExport() gin.HandlerFunc {
	return rangeExport(h, "stock", h.service.Stock, reports.StockTable)
}

// BalanceSheet handles GET /reports/balance-sheet
func (h *ReportsHandler) BalanceSheet(c *gin.Context) {
	var q dto.BalanceSheetQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf, err := dto.OptionalDate("asOf", q.AsOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	sheet, err := h.service.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sheet)
}

// Journal handles GET /reports/journal
func (h *ReportsHandler) Journal(c *gin.Context) {
	var q dto.JournalQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	journal, err := h.service.Journal(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, journal)
}
