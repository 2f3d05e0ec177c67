package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/id"
)

func TestStockDeltas_NetsAndSorts(t *testing.T) {
	a := id.MustParse("00000000-0000-7000-8000-000000000001")
	b := id.MustParse("00000000-0000-7000-8000-000000000002")
	c := id.MustParse("00000000-0000-7000-8000-000000000003")

	before := &EntrySet{Stock: []StockEntry{{ProductID: c, Quantity: -10}, {ProductID: a, Quantity: -2}}}
	after := &EntrySet{Stock: []StockEntry{{ProductID: c, Quantity: -10}, {ProductID: b, Quantity: -1}, {ProductID: a, Quantity: -5}}}

	got := stockDeltas(before, after)
	assert.Equal(t, []stockDelta{
		{ProductID: a, Delta: -3},
		{ProductID: b, Delta: -1},
	}, got)

	assert.Empty(t, stockDeltas(nil, nil))
	assert.Equal(t, []stockDelta{{ProductID: c, Delta: 10}}, stockDeltas(&EntrySet{Stock: []StockEntry{{ProductID: c, Quantity: -10}}}, nil))
}

func TestPayableDeltas(t *testing.T) {
	s1, s2 := id.New(), id.New()
	entry := func(supplier id.ID, total, paid string) *PayableEntry {
		return &PayableEntry{
			SupplierID:   supplier,
			SupplierName: "S",
			Total:        decimal.RequireFromString(total),
			Paid:         decimal.RequireFromString(paid),
		}
	}

	t.Run("create", func(t *testing.T) {
		got := payableDeltas(nil, entry(s1, "100", "10"))
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Purchases)
		assert.True(t, got[0].Total.Equal(decimal.NewFromInt(100)))
	})

	t.Run("delete", func(t *testing.T) {
		got := payableDeltas(entry(s1, "100", "10"), nil)
		require.Len(t, got, 1)
		assert.Equal(t, -1, got[0].Purchases)
		assert.True(t, got[0].Paid.Equal(decimal.NewFromInt(-10)))
	})

	t.Run("amount change", func(t *testing.T) {
		got := payableDeltas(entry(s1, "100", "10"), entry(s1, "150", "60"))
		require.Len(t, got, 1)
		assert.Zero(t, got[0].Purchases)
		assert.True(t, got[0].Total.Equal(decimal.NewFromInt(50)))
		assert.True(t, got[0].Paid.Equal(decimal.NewFromInt(50)))
	})

	t.Run("no change", func(t *testing.T) {
		assert.Empty(t, payableDeltas(entry(s1, "100", "10"), entry(s1, "100.00", "10")))
	})

	t.Run("supplier move removes first", func(t *testing.T) {
		got := payableDeltas(entry(s1, "100", "10"), entry(s2, "100", "10"))
		require.Len(t, got, 2)
		assert.Equal(t, s1, got[0].Entry.SupplierID)
		assert.Equal(t, -1, got[0].Purchases)
		assert.Equal(t, s2, got[1].Entry.SupplierID)
		assert.Equal(t, 1, got[1].Purchases)
	})
}

func TestCounterDeltas_WarehouseMove(t *testing.T) {
	w1, w2 := id.New(), id.New()
	p := id.New()
	before := &ProductSnapshot{ID: p, Brand: "Acme", WarehouseID: w1, Stock: 4}
	after := &ProductSnapshot{ID: p, Brand: "Acme", WarehouseID: w2, Stock: 6}

	got := counterDeltas(before, after)
	assert.Equal(t, []CounterDelta{
		{Kind: CounterBrand, Name: "Acme", Stock: 2},
		{Kind: CounterWarehouse, WarehouseID: w1, Products: -1, Stock: -4},
		{Kind: CounterWarehouse, WarehouseID: w2, Products: 1, Stock: 6},
	}, got)
}

func TestStatuses(t *testing.T) {
	d := decimal.RequireFromString
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		total      string
		paid       string
		due        time.Time
		payable    PayableStatus
		receivable ReceivableStatus
		cash       CashStatus
	}{
		{"unpaid", "100", "0", now.AddDate(0, 0, 1), PayableUnpaid, ReceivablePending, CashUnpaid},
		{"partial", "100", "40", now.AddDate(0, 0, -1), PayablePartiallyPaid, ReceivablePartiallyPaid, CashPartiallyPaid},
		{"paid", "100", "100", now.AddDate(0, 0, -1), PayablePaid, ReceivableReceived, CashPaid},
		{"overpaid", "100", "120", time.Time{}, PayablePaid, ReceivableReceived, CashPaid},
		{"overdue", "100", "0", now.AddDate(0, 0, -1), PayableUnpaid, ReceivableOverdue, CashUnpaid},
		{"no due date", "100", "0", time.Time{}, PayableUnpaid, ReceivablePending, CashUnpaid},
		{"zero total", "0", "0", now.AddDate(0, 0, -1), PayablePaid, ReceivableReceived, CashPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.payable, PayableStatusFor(d(tt.total), d(tt.paid)))
			assert.Equal(t, tt.receivable, ReceivableStatusFor(d(tt.total), d(tt.paid), tt.due, now))
			assert.Equal(t, tt.cash, CashStatusFor(d(tt.total), d(tt.paid)))
		})
	}
}

func TestParsePaymentType(t *testing.T) {
	for in, want := range map[string]PaymentType{
		"cash":   PaymentCash,
		"Bank":   PaymentBank,
		"CHEQUE": PaymentCheque,
		"check":  PaymentCheque,
	} {
		got, err := ParsePaymentType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePaymentType("card")
	assert.Error(t, err)

	assert.Equal(t, MethodHand, PaymentCash.Method())
	assert.Equal(t, MethodBank, PaymentBank.Method())
	assert.Equal(t, MethodCheque, PaymentCheque.Method())
	assert.True(t, PaymentBank.RequiresAccount())
	assert.False(t, PaymentCheque.RequiresAccount())
}

func TestPayable_ApplyDeltaKeepsBalanceIdentity(t *testing.T) {
	p := NewPayable(id.New(), "S", "PO-1")
	p.ApplyDelta(decimal.NewFromInt(300), decimal.NewFromInt(100), 1)
	p.ApplyDelta(decimal.NewFromInt(200), decimal.NewFromInt(200), 1)

	assert.True(t, p.Balance.Equal(p.TotalAmount.Sub(p.AmountPaid)))
	assert.True(t, p.Balance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, PayablePartiallyPaid, p.Status)
	assert.False(t, p.Empty())

	p.ApplyDelta(decimal.NewFromInt(-500), decimal.NewFromInt(-300), -2)
	assert.True(t, p.Empty())
	assert.Equal(t, PayablePaid, p.Status)
}
