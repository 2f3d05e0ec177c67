package reports

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/tx"
)

// Service builds reports inside read-only transactions.
type Service struct {
	repo Repository
	txm  tx.ReadOnlyManager
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, txm tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txm: txm, now: time.Now}
}

// resolvePeriod applies the default range, Jan 1 of the current year to now.
// An explicit To covers the whole day.
func (s *Service) resolvePeriod(from, to *time.Time) (Period, error) {
	now := s.now().UTC()
	p := Period{
		From: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   now,
	}
	if from != nil {
		p.From = startOfDay(*from)
	}
	if to != nil {
		p.To = startOfDay(*to).AddDate(0, 0, 1)
	}
	if !p.From.Before(p.To) {
		return Period{}, apperror.NewValidation("from must be before to").
			WithDetail("from", p.From.Format(time.DateOnly)).
			WithDetail("to", p.To.Format(time.DateOnly))
	}
	return p, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ProfitLoss builds the profit and loss statement.
func (s *Service) ProfitLoss(ctx context.Context, filter RangeFilter) (*ProfitLoss, error) {
	period, err := s.resolvePeriod(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	var totals ProfitLossTotals
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		totals, err = s.repo.ProfitLossTotals(ctx, period, filter.WarehouseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("profit and loss: %w", err)
	}

	report := NewProfitLoss(period, totals)
	report.WarehouseID = filter.WarehouseID
	return report, nil
}

// BalanceSheet builds the balance sheet. Cash and receivables are cut at asOf;
// payables and inventory are the current state.
func (s *Service) BalanceSheet(ctx context.Context, asOf *time.Time) (*BalanceSheet, error) {
	at := s.now().UTC()
	if asOf != nil {
		at = startOfDay(*asOf).AddDate(0, 0, 1)
	}

	var totals BalanceTotals
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		totals, err = s.repo.BalanceTotals(ctx, at)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("balance sheet: %w", err)
	}
	return NewBalanceSheet(at, totals), nil
}

// Sales groups sales orders by day.
func (s *Service) Sales(ctx context.Context, filter RangeFilter) (*Report[SalesDay], error) {
	return periodReport(ctx, s, filter, func(ctx context.Context, p Period) ([]SalesDay, error) {
		return s.repo.SalesByDay(ctx, p, filter.WarehouseID)
	}, func(r SalesDay) decimal.Decimal { return r.Total })
}

// Purchases groups purchases by supplier.
func (s *Service) Purchases(ctx context.Context, filter RangeFilter) (*Report[SupplierPurchases], error) {
	return periodReport(ctx, s, filter, func(ctx context.Context, p Period) ([]SupplierPurchases, error) {
		return s.repo.PurchasesBySupplier(ctx, p, filter.WarehouseID)
	}, func(r SupplierPurchases) decimal.Decimal { return r.Total })
}

// Expenses groups non-rejected expenses by category.
func (s *Service) Expenses(ctx context.Context, filter RangeFilter) (*Report[CategoryExpenses], error) {
	return periodReport(ctx, s, filter, func(ctx context.Context, p Period) ([]CategoryExpenses, error) {
		return s.repo.ExpensesByCategory(ctx, p)
	}, func(r CategoryExpenses) decimal.Decimal { return r.Total })
}

// Stock lists products with their stock value. The total is the inventory value.
func (s *Service) Stock(ctx context.Context, filter RangeFilter) (*Report[StockItem], error) {
	var items []StockItem
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.repo.Stock(ctx, filter.WarehouseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("stock report: %w", err)
	}
	return newReport(nil, items, func(r StockItem) decimal.Decimal { return r.Value }), nil
}

func periodReport[T any](
	ctx context.Context,
	s *Service,
	filter RangeFilter,
	load func(ctx context.Context, p Period) ([]T, error),
	total func(T) decimal.Decimal,
) (*Report[T], error) {
	period, err := s.resolvePeriod(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	var items []T
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		items, err = load(ctx, period)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return newReport(&period, items, total), nil
}

func newReport[T any](period *Period, items []T, total func(T) decimal.Decimal) *Report[T] {
	if items == nil {
		items = []T{}
	}
	r := &Report[T]{Period: period, Items: items}
	for _, it := range items {
		r.Total = r.Total.Add(total(it))
	}
	return r
}

// Journal lists transaction documents of every type in a range.
func (s *Service) Journal(ctx context.Context, filter JournalFilter) (*Journal, error) {
	period, err := s.resolvePeriod(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	types := filter.Types
	if len(types) == 0 {
		types = JournalTypes
	}
	for _, t := range types {
		if !slices.Contains(JournalTypes, t) {
			return nil, apperror.NewValidation("unknown document type").WithDetail("type", t)
		}
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	j := &Journal{Period: period, Limit: filter.Limit, Offset: filter.Offset}
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		j.Items, j.TotalCount, err = s.repo.Journal(ctx, period, types, filter.Limit, filter.Offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("document journal: %w", err)
	}
	if j.Items == nil {
		j.Items = []JournalItem{}
	}
	return j, nil
}
