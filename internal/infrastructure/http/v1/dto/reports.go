package dto

import (
	"strings"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/reports"
)

// ReportRangeQuery is the query string of the range reports.
type ReportRangeQuery struct {
	From        string `form:"from"`
	To          string `form:"to"`
	WarehouseID string `form:"warehouseId"`
}

// ToFilter parses the dates and the optional warehouse.
func (q *ReportRangeQuery) ToFilter() (reports.RangeFilter, error) {
	from, err := OptionalDate("from", q.From)
	if err != nil {
		return reports.RangeFilter{}, err
	}
	to, err := OptionalDate("to", q.To)
	if err != nil {
		return reports.RangeFilter{}, err
	}
	filter := reports.RangeFilter{From: from, To: to}

	if q.WarehouseID != "" {
		whID, err := id.Parse(q.WarehouseID)
		if err != nil {
			return reports.RangeFilter{}, apperror.NewValidation("invalid warehouseId").
				WithDetail("field", "warehouseId")
		}
		filter.WarehouseID = &whID
	}
	return filter, nil
}

// BalanceSheetQuery is the query string of the balance sheet.
type BalanceSheetQuery struct {
	AsOf string `form:"asOf"`
}

// JournalQuery is the query string of the document journal.
// Types is a comma separated list of document types.
type JournalQuery struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Types  string `form:"types"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter parses the query into a journal filter.
func (q *JournalQuery) ToFilter() (reports.JournalFilter, error) {
	from, err := OptionalDate("from", q.From)
	if err != nil {
		return reports.JournalFilter{}, err
	}
	to, err := OptionalDate("to", q.To)
	if err != nil {
		return reports.JournalFilter{}, err
	}

	filter := reports.JournalFilter{From: from, To: to, Limit: q.Limit, Offset: q.Offset}
	for _, t := range strings.Split(q.Types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, t)
		}
	}
	return filter, nil
}
