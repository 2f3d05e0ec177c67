package returns_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/domain/documents/documentstest"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/ledger/ledgertest"
)

// returnRepo adds the outstanding-quantity query to the generic fake.
type returnRepo struct {
	*documentstest.Repo[*returns.Return]
}

func (r returnRepo) SumReturnedQuantity(_ context.Context, orderID, excludeID id.ID) (int64, error) {
	var sum int64
	for _, ret := range r.All() {
		if ret.OrderID == orderID && ret.ID != excludeID {
			sum += ret.Quantity
		}
	}
	return sum, nil
}

func cloneReturn(r *returns.Return) *returns.Return {
	c := *r
	return &c
}

func cloneOrder(o *sales_order.SalesOrder) *sales_order.SalesOrder {
	c := *o
	return &c
}

func clonePurchase(p *purchase.Purchase) *purchase.Purchase {
	c := *p
	c.Payments = append([]purchase.Payment(nil), p.Payments...)
	return &c
}

type fixture struct {
	store        *ledgertest.Store
	cat          *documentstest.Catalog
	product      id.ID
	orders       *sales_order.Service
	purchases    *purchase.Service
	salesReturns *returns.Service
	purchReturns *returns.Service
	customer     id.ID
	supplier     id.ID
	wh           id.ID
}

func newFixture(t *testing.T, stock int64) *fixture {
	t.Helper()
	store := ledgertest.New()
	cat := documentstest.NewCatalog(store)
	gen := &numerator.MockGenerator{}

	orderRepo := documentstest.NewRepo(cloneOrder)
	purchaseRepo := documentstest.NewRepo(clonePurchase)
	salesRetRepo := returnRepo{documentstest.NewRepo(cloneReturn)}
	purchRetRepo := returnRepo{documentstest.NewRepo(cloneReturn)}

	txm := &documentstest.Tx{Store: store, Repos: []documentstest.Snapshotter{
		orderRepo, purchaseRepo, salesRetRepo.Repo, purchRetRepo.Repo,
	}}
	ledgerSvc := ledger.NewService(ledger.Config{
		Stores:    store.Stores(),
		TxManager: store,
		Audit:     store,
		Outbox:    store,
	})

	f := &fixture{
		store:    store,
		cat:      cat,
		customer: cat.AddCustomer("Alice"),
		supplier: cat.AddSupplier("Globex"),
	}
	f.wh = cat.AddWarehouse("Main")
	f.product = cat.AddProduct("P-1", f.wh, "10", stock)

	refs := cat.References()
	f.orders = sales_order.NewService(orderRepo, txm, gen, ledgerSvc, refs, salesRetRepo)
	f.purchases = purchase.NewService(purchaseRepo, txm, gen, ledgerSvc, refs, purchRetRepo)
	f.salesReturns = returns.NewService(returns.KindSales, salesRetRepo, txm, gen, ledgerSvc, returns.SalesOrders(orderRepo))
	f.purchReturns = returns.NewService(returns.KindPurchase, purchRetRepo, txm, gen, ledgerSvc, returns.PurchaseOrders(purchaseRepo))
	return f
}

func (f *fixture) sell(t *testing.T, qty int64) *sales_order.SalesOrder {
	t.Helper()
	o := f.salesOrder(qty)
	require.NoError(t, f.orders.Create(context.Background(), o))
	return o
}

func (f *fixture) salesOrder(qty int64) *sales_order.SalesOrder {
	o := sales_order.NewSalesOrder()
	customer := f.customer
	o.CustomerID = &customer
	o.ProductID = f.product
	o.WarehouseID = f.wh
	o.Quantity = qty
	o.UnitPrice = decimal.NewFromInt(10)
	return o
}

func (f *fixture) buy(t *testing.T, qty int64, status purchase.Status) *purchase.Purchase {
	t.Helper()
	p := purchase.NewPurchase()
	supplier := f.supplier
	p.SupplierID = &supplier
	p.ProductID = f.product
	p.WarehouseID = f.wh
	p.Quantity = qty
	p.UnitPrice = decimal.NewFromInt(3)
	p.Status = status
	require.NoError(t, f.purchases.Create(context.Background(), p))
	return p
}

func newReturn(kind returns.Kind, orderNumber string, qty int64) *returns.Return {
	r := returns.NewReturn(kind)
	r.OrderNumber = orderNumber
	r.Quantity = qty
	r.Total = decimal.NewFromInt(qty * 10)
	return r
}

func TestSalesReturn_StockScenario(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	assert.Equal(t, int64(40), f.store.Stock(f.product))

	r := newReturn(returns.KindSales, o.Number, 5)
	require.NoError(t, f.salesReturns.Create(ctx, r))
	assert.Regexp(t, `^SRET-\d{6}-001$`, r.Number)
	assert.Equal(t, o.ID, r.OrderID)
	assert.Equal(t, "Alice", r.PartyName)
	assert.Equal(t, int64(45), f.store.Stock(f.product))

	require.NoError(t, f.salesReturns.Delete(ctx, r.ID))
	assert.Equal(t, int64(40), f.store.Stock(f.product))
}

func TestSalesReturn_UpdateAppliesQuantityDifference(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	r := newReturn(returns.KindSales, o.Number, 5)
	require.NoError(t, f.salesReturns.Create(ctx, r))

	r.Quantity = 8
	require.NoError(t, f.salesReturns.Update(ctx, r))
	assert.Equal(t, int64(48), f.store.Stock(f.product))
}

func TestSalesReturn_OverReturn(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	require.NoError(t, f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 6)))

	err := f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 5))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOverReturn))
	assert.Equal(t, int64(46), f.store.Stock(f.product))
}

func TestSalesReturn_UnknownOrder(t *testing.T) {
	f := newFixture(t, 50)

	err := f.salesReturns.Create(context.Background(), newReturn(returns.KindSales, "SO-000000-999", 1))
	assert.True(t, apperror.IsNotFound(err))
}

func TestSalesReturn_SettledCannotBeDeleted(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	r := newReturn(returns.KindSales, o.Number, 2)
	r.Status = returns.StatusCompleted
	require.NoError(t, f.salesReturns.Create(ctx, r))

	err := f.salesReturns.Delete(ctx, r.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, int64(42), f.store.Stock(f.product))
}

func TestSalesOrderDelete_BlockedByReturn(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	require.NoError(t, f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 5)))

	err := f.orders.Delete(ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, int64(45), f.store.Stock(f.product))
}

func TestPurchaseReturn_SendsStockBack(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	p := purchase.NewPurchase()
	supplier := f.supplier
	p.SupplierID = &supplier
	p.ProductID = f.product
	p.WarehouseID = f.wh
	p.Quantity = 20
	p.UnitPrice = decimal.NewFromInt(3)
	require.NoError(t, f.purchases.Create(ctx, p))
	assert.Equal(t, int64(20), f.store.Stock(f.product))

	r := newReturn(returns.KindPurchase, p.Number, 4)
	require.NoError(t, f.purchReturns.Create(ctx, r))
	assert.Regexp(t, `^RET-\d{6}-001$`, r.Number)
	assert.Equal(t, "Globex", r.PartyName)
	assert.Equal(t, int64(16), f.store.Stock(f.product))

	require.NoError(t, f.purchReturns.Delete(ctx, r.ID))
	assert.Equal(t, int64(20), f.store.Stock(f.product))
}

func TestSalesReturn_CancelledOrderRejected(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.salesOrder(10)
	o.Status = sales_order.StatusCancelled
	require.NoError(t, f.orders.Create(ctx, o))
	assert.Equal(t, int64(50), f.store.Stock(f.product))

	err := f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 10))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderCancelled))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	assert.Equal(t, int64(50), f.store.Stock(f.product))
}

func TestSalesOrderCancel_BlockedByReturn(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	r := newReturn(returns.KindSales, o.Number, 5)
	require.NoError(t, f.salesReturns.Create(ctx, r))
	assert.Equal(t, int64(45), f.store.Stock(f.product))

	o.Status = sales_order.StatusCancelled
	err := f.orders.Update(ctx, o)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderHasReturns))
	assert.Equal(t, int64(45), f.store.Stock(f.product))

	// Without the return the order cancels and every unit comes back once.
	require.NoError(t, f.salesReturns.Delete(ctx, r.ID))
	require.NoError(t, f.orders.Update(ctx, o))
	assert.Equal(t, int64(50), f.store.Stock(f.product))
}

func TestSalesOrderProductChange_BlockedByReturn(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()
	other := f.cat.AddProduct("P-2", f.wh, "10", 50)

	o := f.sell(t, 10)
	require.NoError(t, f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 2)))

	o.ProductID = other
	err := f.orders.Update(ctx, o)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderHasReturns))
	assert.Equal(t, int64(42), f.store.Stock(f.product))
	assert.Equal(t, int64(50), f.store.Stock(other))
}

func TestSalesOrderUpdate_QuantityBelowReturned(t *testing.T) {
	f := newFixture(t, 50)
	ctx := context.Background()

	o := f.sell(t, 10)
	require.NoError(t, f.salesReturns.Create(ctx, newReturn(returns.KindSales, o.Number, 6)))

	o.Quantity = 5
	err := f.orders.Update(ctx, o)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestPurchaseReturn_CancelledPurchaseRejected(t *testing.T) {
	f := newFixture(t, 0)

	p := f.buy(t, 20, purchase.StatusCancelled)
	assert.Equal(t, int64(0), f.store.Stock(f.product))

	err := f.purchReturns.Create(context.Background(), newReturn(returns.KindPurchase, p.Number, 4))
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderCancelled))
	assert.Equal(t, int64(0), f.store.Stock(f.product))
}

func TestPurchaseCancel_BlockedByReturn(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	p := f.buy(t, 20, purchase.StatusReceived)
	require.NoError(t, f.purchReturns.Create(ctx, newReturn(returns.KindPurchase, p.Number, 4)))
	assert.Equal(t, int64(16), f.store.Stock(f.product))

	p.Status = purchase.StatusCancelled
	err := f.purchases.Update(ctx, p)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderHasReturns))
	assert.Equal(t, int64(16), f.store.Stock(f.product))
}
