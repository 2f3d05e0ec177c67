package sales_order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/domain/documents/documentstest"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/ledger/ledgertest"
)

type returnsFake struct {
	mu  sync.Mutex
	qty map[id.ID]int64
}

func (f *returnsFake) SumReturnedQuantity(_ context.Context, orderID, _ id.ID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qty[orderID], nil
}

func cloneOrder(o *sales_order.SalesOrder) *sales_order.SalesOrder {
	c := *o
	return &c
}

type fixture struct {
	store    *ledgertest.Store
	orders   *documentstest.Repo[*sales_order.SalesOrder]
	returns  *returnsFake
	svc      *sales_order.Service
	customer id.ID
	product  id.ID
	wh       id.ID
}

func newFixture(t *testing.T, stock int64) *fixture {
	t.Helper()
	store := ledgertest.New()
	cat := documentstest.NewCatalog(store)
	orders := documentstest.NewRepo(cloneOrder)
	returns := &returnsFake{qty: make(map[id.ID]int64)}

	f := &fixture{
		store:    store,
		orders:   orders,
		returns:  returns,
		customer: cat.AddCustomer("Alice"),
	}
	f.wh = cat.AddWarehouse("Main")
	f.product = cat.AddProduct("P-1", f.wh, "10", stock)

	txm := &documentstest.Tx{Store: store, Repos: []documentstest.Snapshotter{orders}}
	ledgerSvc := ledger.NewService(ledger.Config{
		Stores:    store.Stores(),
		TxManager: store,
		Audit:     store,
		Outbox:    store,
	})
	f.svc = sales_order.NewService(orders, txm, &numerator.MockGenerator{}, ledgerSvc, cat.References(), returns)
	return f
}

func (f *fixture) order(qty int64, paid string, pt ledger.PaymentType) *sales_order.SalesOrder {
	o := sales_order.NewSalesOrder()
	customer := f.customer
	o.CustomerID = &customer
	o.ProductID = f.product
	o.WarehouseID = f.wh
	o.Quantity = qty
	o.UnitPrice = decimal.NewFromInt(10)
	o.PaymentAmount = decimal.RequireFromString(paid)
	o.PaymentType = pt
	if pt == ledger.PaymentBank {
		o.AccountNumber = "ACC-1"
	}
	return o
}

func ptr[T any](v T) *T { return &v }

func TestCreate_IssuesStockAndOpensReceivableAndCash(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "40", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))

	assert.Regexp(t, `^SO-\d{6}-001$`, o.Number)
	assert.Equal(t, "Alice", o.CustomerName)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(100)))
	assert.True(t, o.Balance.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, int64(40), f.store.Stock(f.product))

	r := f.store.Receivable(o.ID)
	require.NotNil(t, r)
	assert.Equal(t, o.Number, r.InvoiceNumber)
	assert.True(t, r.Balance.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, ledger.ReceivablePartiallyPaid, r.Status)

	cash := f.store.Cash(ledger.SideSales, ledger.MethodHand, o.ID)
	require.NotNil(t, cash)
	assert.Equal(t, "TXN-"+o.Number, cash.TransactionID)
	assert.Equal(t, 1, f.store.CashCount())
}

func TestCreate_QuantityAboveStockWritesNothing(t *testing.T) {
	f := newFixture(t, 5)

	err := f.svc.Create(context.Background(), f.order(6, "0", ledger.PaymentCash))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Equal(t, 0, f.orders.Len())
	assert.Equal(t, int64(5), f.store.Stock(f.product))
	assert.Equal(t, 0, f.store.CashCount())
	assert.Empty(t, f.store.Events())
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *sales_order.SalesOrder)
		code   string
	}{
		{"payment above total", func(o *sales_order.SalesOrder) { o.PaymentAmount = decimal.NewFromInt(101) }, apperror.CodeValidation},
		{"bank without account", func(o *sales_order.SalesOrder) { o.PaymentType = ledger.PaymentBank }, apperror.CodeValidation},
		{"due before order", func(o *sales_order.SalesOrder) { o.DueDate = o.Date.Add(-48 * time.Hour) }, apperror.CodeValidation},
		{"unknown customer", func(o *sales_order.SalesOrder) { o.CustomerID = ptr(id.New()) }, apperror.CodeNotFound},
		{"unknown warehouse", func(o *sales_order.SalesOrder) { o.WarehouseID = id.New() }, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 50)
			o := f.order(10, "0", ledger.PaymentCash)
			tt.mutate(o)

			err := f.svc.Create(context.Background(), o)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, 0, f.orders.Len())
			assert.Equal(t, int64(50), f.store.Stock(f.product))
		})
	}
}

func TestUpdate_MovesCashRowToNewMethod(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "100", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))

	o.PaymentType = ledger.PaymentBank
	o.AccountNumber = "ACC-9"
	o.Quantity = 12
	o.Total = decimal.NewFromInt(120)
	require.NoError(t, f.svc.Update(ctx, o))

	assert.Nil(t, f.store.Cash(ledger.SideSales, ledger.MethodHand, o.ID))
	bank := f.store.Cash(ledger.SideSales, ledger.MethodBank, o.ID)
	require.NotNil(t, bank)
	assert.Equal(t, "ACC-9", bank.AccountNumber)
	assert.True(t, bank.TotalAmount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 1, f.store.CashCount())

	assert.Equal(t, int64(38), f.store.Stock(f.product))
	r := f.store.Receivable(o.ID)
	require.NotNil(t, r)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(120)))
}

func TestUpdate_StaleVersion(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "0", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))

	stale := cloneOrder(o)
	require.NoError(t, f.svc.Update(ctx, o))

	err := f.svc.Update(ctx, stale)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
}

func TestDelete_RestoresStockAndRemovesDerivedRows(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "20", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))
	require.NoError(t, f.svc.Delete(ctx, o.ID))

	assert.Equal(t, int64(50), f.store.Stock(f.product))
	assert.Nil(t, f.store.Receivable(o.ID))
	assert.Equal(t, 0, f.store.CashCount())
	assert.Equal(t, 0, f.orders.Len())
}

func TestDelete_RejectedWhileReturnsExist(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "0", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))
	f.returns.qty[o.ID] = 3

	err := f.svc.Delete(ctx, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, int64(40), f.store.Stock(f.product))
	assert.NotNil(t, f.store.Receivable(o.ID))
}

func TestUpdate_CancelWhileReturnsExist(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.order(10, "0", ledger.PaymentCash)
	require.NoError(t, f.svc.Create(ctx, o))
	f.returns.qty[o.ID] = 5

	o.Status = sales_order.StatusCancelled
	err := f.svc.Update(ctx, o)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderHasReturns))
	assert.Equal(t, int64(40), f.store.Stock(f.product))

	delete(f.returns.qty, o.ID)
	require.NoError(t, f.svc.Update(ctx, o))
	assert.Equal(t, int64(50), f.store.Stock(f.product))
}
