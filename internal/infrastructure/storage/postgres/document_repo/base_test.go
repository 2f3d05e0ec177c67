package document_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
)

func TestUpdateQuery_SkipsImmutableColumns(t *testing.T) {
	r := NewSalesOrderRepo(nil)
	order := sales_order.NewSalesOrder()
	order.Number = "SO-240101-001"
	order.Version = 3

	q, err := r.updateQuery(order)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE doc_sales_orders SET ")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "updated_at = NOW()")
	assert.Contains(t, sql, "WHERE id = $")
	assert.NotRegexp(t, `[ ,]number =`, sql)
	assert.NotContains(t, sql, "created_by =")
	assert.NotContains(t, sql, "created_at =")
	assert.Equal(t, order.Version, args[len(args)-1])
}

func TestListQuery_SearchAndDateRange(t *testing.T) {
	r := NewPurchaseRepo(nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.listQuery(domain.ListFilter{Search: "globex", DateFrom: &from, DateTo: &to}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_purchases WHERE (number ILIKE $1 OR supplier_name ILIKE $2 OR status ILIKE $3)")
	assert.Contains(t, sql, "AND date >= $4 AND date < $5")
	assert.Equal(t, "%globex%", args[0])
	assert.Equal(t, from, args[3])
	assert.Equal(t, to.Add(24*time.Hour), args[4], "date-only upper bound includes the whole day")
}

func TestParseOrderBy(t *testing.T) {
	r := NewExpenseRepo(nil)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "date DESC, number DESC"},
		{in: "name", want: "date DESC, number DESC"},
		{in: "-amount", want: "amount DESC"},
		{in: "category", want: "category ASC"},
		{in: "+number", want: "number ASC"},
		{in: "drop table", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := r.parseOrderBy(tt.in)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaymentsInsert(t *testing.T) {
	r := NewPurchaseRepo(nil)
	p := purchase.NewPurchase()
	p.Payments = []purchase.Payment{
		{LineNo: 1, Amount: decimal.NewFromInt(10), Type: ledger.PaymentCash},
		{LineNo: 2, Amount: decimal.NewFromInt(5), Type: ledger.PaymentBank, AccountNumber: "ACC"},
	}

	q, ok := r.paymentsInsert(p)
	require.True(t, ok)
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO doc_purchase_payments (purchase_id,line_no,amount,payment_type,account_number,paid_at) VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)",
		sql)
	assert.Len(t, args, 12)

	p.Payments = nil
	_, ok = r.paymentsInsert(p)
	assert.False(t, ok)
}

func TestReturnedQuery(t *testing.T) {
	r := NewSalesReturnRepo(nil)
	orderID, retID := id.New(), id.New()

	sql, args, err := r.returnedQuery(orderID, retID).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COALESCE(SUM(quantity), 0)::BIGINT FROM doc_sales_returns WHERE order_id = $1 AND id <> $2", sql)
	assert.Equal(t, []any{orderID, retID}, args)

	sql, _, err = r.returnedQuery(orderID, id.Nil()).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "id <>")
}

func TestReturnRepo_NewCarriesKind(t *testing.T) {
	assert.Equal(t, returns.KindPurchase, NewPurchaseReturnRepo(nil).newFn().Kind)
	assert.Equal(t, returns.KindSales, NewSalesReturnRepo(nil).newFn().Kind)
}
