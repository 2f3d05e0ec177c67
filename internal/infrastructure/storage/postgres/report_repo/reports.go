// Package report_repo provides the PostgreSQL implementation of the report repository.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/reports"
	"bizbook/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// inPeriod scopes a document table to [from, to).
func inPeriod(p reports.Period) squirrel.And {
	return squirrel.And{
		squirrel.GtOrEq{"date": p.From},
		squirrel.Lt{"date": p.To},
	}
}

func inWarehouse(where squirrel.And, warehouseID *id.ID) squirrel.And {
	if warehouseID != nil {
		where = append(where, squirrel.Eq{"warehouse_id": *warehouseID})
	}
	return where
}

// sum builds a scalar subquery. It keeps "?" placeholders so the outer
// builder numbers them.
func sum(column, table string, where squirrel.Sqlizer) squirrel.SelectBuilder {
	return squirrel.
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", column)).
		From(table).
		Where(where)
}

func (r *ReportRepo) profitLossQuery(p reports.Period, warehouseID *id.ID) squirrel.SelectBuilder {
	notCancelled := func(status string) squirrel.And {
		return inWarehouse(append(inPeriod(p), squirrel.NotEq{"status": status}), warehouseID)
	}
	scoped := inWarehouse(inPeriod(p), warehouseID)

	return r.builder.Select().
		Column(squirrel.Alias(sum("total", "doc_sales_orders", notCancelled(string(sales_order.StatusCancelled))), "gross_sales")).
		Column(squirrel.Alias(sum("total", "doc_sales_returns", scoped), "sales_returns")).
		Column(squirrel.Alias(sum("total", "doc_purchases", notCancelled(string(purchase.StatusCancelled))), "purchases")).
		Column(squirrel.Alias(sum("total", "doc_purchase_returns", scoped), "purchase_returns")).
		Column(squirrel.Alias(sum("amount", "doc_expenses", append(inPeriod(p), squirrel.NotEq{"status": string(expense.StatusRejected)})), "expenses"))
}

// ProfitLossTotals sums sales, returns, purchases and expenses of the period.
// Expenses are not scoped by warehouse.
func (r *ReportRepo) ProfitLossTotals(ctx context.Context, p reports.Period, warehouseID *id.ID) (reports.ProfitLossTotals, error) {
	var totals reports.ProfitLossTotals
	sql, args, err := r.profitLossQuery(p, warehouseID).ToSql()
	if err != nil {
		return totals, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &totals, sql, args...); err != nil {
		return totals, fmt.Errorf("query profit and loss: %w", err)
	}
	return totals, nil
}

// cashQuery reports every cash method, including unused ones.
const cashQuery = `
	SELECT m.method,
	       COALESCE(SUM(c.amount_paid) FILTER (WHERE c.side = $1), 0) AS received,
	       COALESCE(SUM(c.amount_paid) FILTER (WHERE c.side = $2), 0) AS paid
	FROM (VALUES ('hand', 1), ('bank', 2), ('cheque', 3)) AS m(method, ord)
	LEFT JOIN led_cash c ON c.method = m.method AND c.entry_date < $3
	GROUP BY m.method, m.ord
	ORDER BY m.ord
`

const outstandingQuery = `
	SELECT
		(SELECT COALESCE(SUM(balance), 0) FROM led_receivables WHERE created_at < $1) AS receivables,
		(SELECT COALESCE(SUM(stock * price), 0) FROM cat_products) AS inventory,
		(SELECT COALESCE(SUM(balance), 0) FROM led_payables) AS payables
`

// BalanceTotals loads the balance sheet sums. Cash and receivables are cut at asOf.
func (r *ReportRepo) BalanceTotals(ctx context.Context, asOf time.Time) (reports.BalanceTotals, error) {
	var totals reports.BalanceTotals
	q := r.txManager.GetQuerier(ctx)

	if err := pgxscan.Select(ctx, q, &totals.Cash, cashQuery, ledger.SideSales, ledger.SidePurchase, asOf); err != nil {
		return totals, fmt.Errorf("query cash balances: %w", err)
	}

	err := q.QueryRow(ctx, outstandingQuery, asOf).Scan(&totals.Receivables, &totals.Inventory, &totals.Payables)
	if err != nil {
		return totals, fmt.Errorf("query outstanding balances: %w", err)
	}
	return totals, nil
}

func (r *ReportRepo) salesQuery(p reports.Period, warehouseID *id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"date_trunc('day', date) AS day",
			"COUNT(*) AS orders",
			"COALESCE(SUM(quantity), 0)::BIGINT AS quantity",
			"COALESCE(SUM(total), 0) AS total",
			"COALESCE(SUM(payment_amount), 0) AS paid",
		).
		From("doc_sales_orders").
		Where(inWarehouse(append(inPeriod(p), squirrel.NotEq{"status": string(sales_order.StatusCancelled)}), warehouseID)).
		GroupBy("day").
		OrderBy("day")
}

// SalesByDay groups sales orders by day.
func (r *ReportRepo) SalesByDay(ctx context.Context, p reports.Period, warehouseID *id.ID) ([]reports.SalesDay, error) {
	var rows []reports.SalesDay
	return rows, r.selectRows(ctx, r.salesQuery(p, warehouseID), &rows, "sales report")
}

func (r *ReportRepo) purchasesQuery(p reports.Period, warehouseID *id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"supplier_id",
			"supplier_name",
			"COUNT(*) AS purchases",
			"COALESCE(SUM(quantity), 0)::BIGINT AS quantity",
			"COALESCE(SUM(total), 0) AS total",
			"COALESCE(SUM(amount_paid), 0) AS paid",
			"COALESCE(SUM(balance), 0) AS balance",
		).
		From("doc_purchases").
		Where(inWarehouse(append(inPeriod(p), squirrel.NotEq{"status": string(purchase.StatusCancelled)}), warehouseID)).
		GroupBy("supplier_id", "supplier_name").
		OrderBy("total DESC", "supplier_name")
}

// PurchasesBySupplier groups purchases by supplier.
func (r *ReportRepo) PurchasesBySupplier(ctx context.Context, p reports.Period, warehouseID *id.ID) ([]reports.SupplierPurchases, error) {
	var rows []reports.SupplierPurchases
	return rows, r.selectRows(ctx, r.purchasesQuery(p, warehouseID), &rows, "purchase report")
}

func (r *ReportRepo) expensesQuery(p reports.Period) squirrel.SelectBuilder {
	return r.builder.
		Select("category", "COUNT(*) AS count", "COALESCE(SUM(amount), 0) AS total").
		From("doc_expenses").
		Where(append(inPeriod(p), squirrel.NotEq{"status": string(expense.StatusRejected)})).
		GroupBy("category").
		OrderBy("total DESC", "category")
}

// ExpensesByCategory groups non-rejected expenses by category.
func (r *ReportRepo) ExpensesByCategory(ctx context.Context, p reports.Period) ([]reports.CategoryExpenses, error) {
	var rows []reports.CategoryExpenses
	return rows, r.selectRows(ctx, r.expensesQuery(p), &rows, "expense report")
}

func (r *ReportRepo) stockQuery(warehouseID *id.ID) squirrel.SelectBuilder {
	q := r.builder.
		Select(
			"p.id AS product_id",
			"p.code",
			"p.name",
			"p.warehouse_id",
			"w.name AS warehouse_name",
			"p.brand",
			"p.category",
			"p.stock",
			"p.price",
			"p.stock * p.price AS value",
		).
		From("cat_products p").
		Join("cat_warehouses w ON w.id = p.warehouse_id").
		OrderBy("p.code")
	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"p.warehouse_id": *warehouseID})
	}
	return q
}

// Stock lists products with their warehouse and stock value.
func (r *ReportRepo) Stock(ctx context.Context, warehouseID *id.ID) ([]reports.StockItem, error) {
	var rows []reports.StockItem
	return rows, r.selectRows(ctx, r.stockQuery(warehouseID), &rows, "stock report")
}

// journalSources maps journal document types to their projection.
var journalSources = map[string]string{
	reports.DocPurchase:       "SELECT 'purchase' AS document_type, id, number, date, supplier_name AS party, total, status FROM doc_purchases",
	reports.DocSalesOrder:     "SELECT 'sales_order' AS document_type, id, number, date, customer_name AS party, total, status FROM doc_sales_orders",
	reports.DocPurchaseReturn: "SELECT 'purchase_return' AS document_type, id, number, date, party_name AS party, total, status FROM doc_purchase_returns",
	reports.DocSalesReturn:    "SELECT 'sales_return' AS document_type, id, number, date, party_name AS party, total, status FROM doc_sales_returns",
	reports.DocExpense:        "SELECT 'expense' AS document_type, id, number, date, category AS party, amount AS total, status FROM doc_expenses",
}

// journalUnion unions the selected document tables with "?" placeholders.
func journalUnion(p reports.Period, types []string) (squirrel.Sqlizer, error) {
	parts := make([]any, 0, 2*len(types))
	for _, t := range types {
		src, ok := journalSources[t]
		if !ok {
			return nil, fmt.Errorf("unknown document type %q", t)
		}
		if len(parts) > 0 {
			parts = append(parts, " UNION ALL ")
		}
		parts = append(parts, squirrel.Expr(src+" WHERE date >= ? AND date < ?", p.From, p.To))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no document types")
	}
	return squirrel.ConcatExpr(parts...), nil
}

func journalQueries(p reports.Period, types []string, limit, offset int) (page, count squirrel.Sqlizer, err error) {
	union, err := journalUnion(p, types)
	if err != nil {
		return nil, nil, err
	}
	page = squirrel.Expr("SELECT * FROM (?) AS journal ORDER BY date DESC, number DESC LIMIT ? OFFSET ?", union, limit, offset)
	count = squirrel.Expr("SELECT COUNT(*) FROM (?) AS journal", union)
	return page, count, nil
}

// Journal lists documents of the given types, newest first.
func (r *ReportRepo) Journal(ctx context.Context, p reports.Period, types []string, limit, offset int) ([]reports.JournalItem, int64, error) {
	page, count, err := journalQueries(p, types, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	q := r.txManager.GetQuerier(ctx)

	sql, args, err := toDollar(count)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count journal: %w", err)
	}

	sql, args, err = toDollar(page)
	if err != nil {
		return nil, 0, err
	}
	var items []reports.JournalItem
	if err := pgxscan.Select(ctx, q, &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("query journal: %w", err)
	}
	return items, total, nil
}

func toDollar(s squirrel.Sqlizer) (string, []any, error) {
	sql, args, err := s.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	sql, err = squirrel.Dollar.ReplacePlaceholders(sql)
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

func (r *ReportRepo) selectRows(ctx context.Context, q squirrel.SelectBuilder, dest any, what string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("query %s: %w", what, err)
	}
	return nil
}
