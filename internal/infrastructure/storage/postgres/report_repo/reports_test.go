package report_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/reports"
)

var period = reports.Period{
	From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
}

func TestProfitLossQuery(t *testing.T) {
	r := NewReportRepo(nil)
	wh := id.New()

	sql, args, err := r.profitLossQuery(period, &wh).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "(SELECT COALESCE(SUM(total), 0) FROM doc_sales_orders WHERE (date >= $1 AND date < $2 AND status <> $3 AND warehouse_id = $4)) AS gross_sales")
	assert.Contains(t, sql, "FROM doc_sales_returns WHERE (date >= $5 AND date < $6 AND warehouse_id = $7)) AS sales_returns")
	assert.Contains(t, sql, "(SELECT COALESCE(SUM(amount), 0) FROM doc_expenses WHERE (date >= $15 AND date < $16 AND status <> $17)) AS expenses")
	assert.NotContains(t, sql, "$18")
	require.Len(t, args, 17)
	assert.Equal(t, "Cancelled", args[2])
	assert.Equal(t, "Rejected", args[16])
}

func TestProfitLossQuery_AllWarehouses(t *testing.T) {
	sql, args, err := NewReportRepo(nil).profitLossQuery(period, nil).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "warehouse_id")
	assert.Len(t, args, 13)
}

func TestSalesQuery(t *testing.T) {
	sql, args, err := NewReportRepo(nil).salesQuery(period, nil).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_sales_orders WHERE (date >= $1 AND date < $2 AND status <> $3) GROUP BY day ORDER BY day")
	assert.Equal(t, []any{period.From, period.To, "Cancelled"}, args)
}

func TestPurchasesQuery(t *testing.T) {
	wh := id.New()
	sql, args, err := NewReportRepo(nil).purchasesQuery(period, &wh).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "GROUP BY supplier_id, supplier_name ORDER BY total DESC, supplier_name")
	require.Len(t, args, 4)
	assert.Contains(t, sql, "AND warehouse_id = $4)")
	assert.Equal(t, []any{period.From, period.To, "Cancelled"}, args[:3])
}

func TestExpensesQuery(t *testing.T) {
	sql, args, err := NewReportRepo(nil).expensesQuery(period).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_expenses WHERE (date >= $1 AND date < $2 AND status <> $3) GROUP BY category")
	assert.Equal(t, "Rejected", args[2])
}

func TestStockQuery(t *testing.T) {
	sql, args, err := NewReportRepo(nil).stockQuery(nil).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)

	wh := id.New()
	sql, args, err = NewReportRepo(nil).stockQuery(&wh).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN cat_warehouses w ON w.id = p.warehouse_id WHERE p.warehouse_id = $1 ORDER BY p.code")
	assert.Len(t, args, 1)
}

func TestJournalQueries(t *testing.T) {
	page, count, err := journalQueries(period, []string{reports.DocSalesOrder, reports.DocExpense}, 20, 40)
	require.NoError(t, err)

	sql, args, err := toDollar(page)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM ("+
			"SELECT 'sales_order' AS document_type, id, number, date, customer_name AS party, total, status FROM doc_sales_orders WHERE date >= $1 AND date < $2"+
			" UNION ALL "+
			"SELECT 'expense' AS document_type, id, number, date, category AS party, amount AS total, status FROM doc_expenses WHERE date >= $3 AND date < $4"+
			") AS journal ORDER BY date DESC, number DESC LIMIT $5 OFFSET $6",
		sql)
	assert.Equal(t, []any{period.From, period.To, period.From, period.To, 20, 40}, args)

	sql, args, err = toDollar(count)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT COUNT(*) FROM (SELECT 'sales_order'")
	assert.Len(t, args, 4)
}

func TestJournalQueries_UnknownType(t *testing.T) {
	_, _, err := journalQueries(period, []string{"invoice"}, 10, 0)
	assert.Error(t, err)
}
