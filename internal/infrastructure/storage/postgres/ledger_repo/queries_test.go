package ledger_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
)

func TestApplyDeltaQuery_GuardsNegativeStock(t *testing.T) {
	r := NewStockRepo(nil)
	pid := id.New()

	sql, args, err := r.applyDeltaQuery(pid, -5).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE cat_products SET stock = stock + $1")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "stock + $3 >= 0")
	assert.True(t, strings.HasSuffix(sql, "RETURNING id, brand, category, warehouse_id, stock"))
	assert.Equal(t, []any{int64(-5), pid, int64(-5)}, args)
}

func TestPayableInsert_IgnoresExistingSupplier(t *testing.T) {
	r := NewPayableRepo(nil)
	p := ledger.NewPayable(id.New(), "Acme", "PO-20240315-0001")

	sql, args, err := r.insertQuery(p, p.InvoiceNumber).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO led_payables")
	assert.True(t, strings.HasSuffix(sql, "ON CONFLICT (supplier_id) DO NOTHING"))
	assert.Equal(t, "PO-20240315-0001", args[3])
}

func TestCashUpsert_KeyedBySideMethodSource(t *testing.T) {
	r := NewCashRepo(nil)
	c := &ledger.CashRecord{
		ID:          id.New(),
		Side:        ledger.SideSales,
		Method:      ledger.MethodBank,
		SourceID:    id.New(),
		Reference:   "SO-240315-001",
		TotalAmount: decimal.NewFromInt(50),
		AmountPaid:  decimal.NewFromInt(50),
		EntryDate:   time.Now(),
	}

	sql, _, err := r.upsertQuery(c).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ON CONFLICT (side, method, source_id) DO UPDATE SET")
	assert.Contains(t, sql, "version = led_cash.version + 1")
	assert.Contains(t, sql, "RETURNING id, version, created_at, updated_at")
}

func TestMarkOverdueQuery(t *testing.T) {
	r := NewReceivableRepo(nil)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.markOverdueQuery(now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE led_receivables SET status = $1")
	assert.Contains(t, sql, "WHERE status = $2 AND due_date < $3")
	assert.Equal(t, ledger.ReceivableOverdue, args[0])
	assert.Equal(t, ledger.ReceivablePending, args[1])
	assert.Equal(t, now, args[2])
}

func TestAdjustGroupSQL_CreatesAutoRows(t *testing.T) {
	sql := adjustGroupSQL(brandTable)

	assert.Contains(t, sql, "INSERT INTO cat_brands")
	assert.Contains(t, sql, "VALUES ($1, $2, $3, $4, true)")
	assert.Contains(t, sql, "cat_brands.total_products + EXCLUDED.total_products")
}

func TestGroupTable_RejectsWarehouse(t *testing.T) {
	_, err := groupTable(ledger.CounterWarehouse)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListQuery(t *testing.T) {
	b := newBase(nil)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("date range search and paging", func(t *testing.T) {
		q := b.builder.Select(cashColumns...).From(cashTable)
		f := domain.ListFilter{Search: "SO-", DateFrom: &from, Limit: 10, Offset: 20}

		pageQ, countQ, err := b.listQuery(cashList, q, f)
		require.NoError(t, err)

		sql, _, err := pageQ.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "reference ILIKE $1")
		assert.Contains(t, sql, "entry_date >= $5")
		assert.Contains(t, sql, "ORDER BY entry_date DESC LIMIT 10 OFFSET 20")

		countSQL, _, err := countQ.ToSql()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(*) FROM (SELECT"))
		assert.NotContains(t, countSQL, "LIMIT")
	})

	t.Run("upper date bound includes the day", func(t *testing.T) {
		to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
		q := b.builder.Select(cashColumns...).From(cashTable)
		pageQ, _, err := b.listQuery(cashList, q, domain.ListFilter{DateTo: &to})
		require.NoError(t, err)

		sql, args, err := pageQ.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "entry_date < $1")
		assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), args[0])
	})

	t.Run("descending sort", func(t *testing.T) {
		q := b.builder.Select(payableColumns...).From(payableTable)
		pageQ, _, err := b.listQuery(payableList, q, domain.ListFilter{OrderBy: "-balance"})
		require.NoError(t, err)

		sql, _, err := pageQ.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY balance DESC LIMIT 50")
	})

	t.Run("unknown sort field", func(t *testing.T) {
		q := b.builder.Select(payableColumns...).From(payableTable)
		_, _, err := b.listQuery(payableList, q, domain.ListFilter{OrderBy: "password"})
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}
