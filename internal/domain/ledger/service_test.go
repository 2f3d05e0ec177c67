package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/ledger/ledgertest"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store     *ledgertest.Store
	svc       *ledger.Service
	warehouse id.ID
	product   id.ID
}

func newFixture(t *testing.T, stock int64) *fixture {
	t.Helper()
	store := ledgertest.New()
	svc := ledger.NewService(ledger.Config{
		Stores:    store.Stores(),
		TxManager: store,
		Audit:     store,
		Outbox:    store,
		Now:       func() time.Time { return now },
	})

	f := &fixture{store: store, svc: svc, warehouse: id.New(), product: id.New()}
	store.AddWarehouse(f.warehouse, "Main")
	snap := &ledger.ProductSnapshot{ID: f.product, Brand: "Acme", Category: "Tools", WarehouseID: f.warehouse, Stock: stock}
	store.PutProduct(*snap)
	require.NoError(t, svc.ApplyProductChange(context.Background(), nil, snap))
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func purchaseSet(productID, supplierID id.ID, qty int64, total, paid string) *ledger.EntrySet {
	return &ledger.EntrySet{
		Stock: []ledger.StockEntry{{ProductID: productID, Quantity: qty}},
		Payable: &ledger.PayableEntry{
			SupplierID:    supplierID,
			SupplierName:  "Supplier",
			InvoiceNumber: "PO-20240315-0001",
			Total:         dec(total),
			Paid:          dec(paid),
		},
		Cash: []ledger.CashEntry{{
			Side:        ledger.SidePurchase,
			Method:      ledger.MethodHand,
			Reference:   "PO-20240315-0001",
			PartyName:   "Supplier",
			TotalAmount: dec(total),
			AmountPaid:  dec(paid),
			Date:        now,
		}},
	}
}

func salesSet(productID id.ID, qty int64, amount, paid string, method ledger.Method) *ledger.EntrySet {
	return &ledger.EntrySet{
		Stock: []ledger.StockEntry{{ProductID: productID, Quantity: -qty}},
		Receivable: &ledger.ReceivableEntry{
			InvoiceNumber: "SO-240315-001",
			CustomerName:  "Walk-in",
			Amount:        dec(amount),
			Paid:          dec(paid),
			DueDate:       now.AddDate(0, 0, 30),
		},
		Cash: []ledger.CashEntry{{
			Side:        ledger.SideSales,
			Method:      method,
			Reference:   "SO-240315-001",
			PartyName:   "Walk-in",
			TotalAmount: dec(amount),
			AmountPaid:  dec(paid),
			Date:        now,
		}},
	}
}

func TestSync_PurchaseCreatesPayableStockAndCash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	supplier := id.New()
	rec := ledger.Recorder{Type: "purchase", ID: id.New(), Number: "PO-20240315-0001"}

	require.NoError(t, f.svc.Sync(ctx, rec, nil, purchaseSet(f.product, supplier, 10, "1000", "400")))

	assert.Equal(t, int64(15), f.store.Stock(f.product))

	p := f.store.Payable(supplier)
	require.NotNil(t, p)
	assert.True(t, p.TotalAmount.Equal(dec("1000")))
	assert.True(t, p.Balance.Equal(dec("600")))
	assert.Equal(t, ledger.PayablePartiallyPaid, p.Status)
	assert.Equal(t, 1, p.PurchaseCount)

	cash := f.store.Cash(ledger.SidePurchase, ledger.MethodHand, rec.ID)
	require.NotNil(t, cash)
	assert.Equal(t, ledger.CashPartiallyPaid, cash.Status)
	assert.True(t, cash.Balance.Equal(dec("600")))

	assert.Equal(t, int64(15), f.store.Warehouse(f.warehouse).TotalStock)
	assert.Equal(t, int64(15), f.store.Brand("Acme").TotalStock)

	movements := f.store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, int64(10), movements[0].Quantity)
	assert.Equal(t, int64(15), movements[0].BalanceAfter)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ledger.EventSynced, events[0].EventType)
	assert.Equal(t, rec.ID, events[0].AggregateID)
}

func TestSync_PayableCollapsesAllPurchasesOfSupplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	supplier := id.New()

	first := ledger.Recorder{Type: "purchase", ID: id.New(), Number: "PO-1"}
	second := ledger.Recorder{Type: "purchase", ID: id.New(), Number: "PO-2"}
	firstSet := purchaseSet(f.product, supplier, 2, "200", "200")
	secondSet := purchaseSet(f.product, supplier, 3, "300", "0")

	require.NoError(t, f.svc.Sync(ctx, first, nil, firstSet))
	require.NoError(t, f.svc.Sync(ctx, second, nil, secondSet))

	p := f.store.Payable(supplier)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.PurchaseCount)
	assert.True(t, p.TotalAmount.Equal(dec("500")))
	assert.True(t, p.AmountPaid.Equal(dec("200")))
	assert.True(t, p.Balance.Equal(p.TotalAmount.Sub(p.AmountPaid)))
	assert.Equal(t, "PO-20240315-0001", p.InvoiceNumber)

	require.NoError(t, f.svc.Sync(ctx, first, firstSet, nil))
	p = f.store.Payable(supplier)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.PurchaseCount)
	assert.True(t, p.TotalAmount.Equal(dec("300")))
	assert.Equal(t, ledger.PayableUnpaid, p.Status)

	require.NoError(t, f.svc.Sync(ctx, second, secondSet, nil))
	assert.Nil(t, f.store.Payable(supplier))
	assert.Equal(t, int64(0), f.store.Stock(f.product))
	assert.Zero(t, f.store.CashCount())
}

func TestSync_PurchaseMovedToAnotherSupplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	oldSupplier, newSupplier := id.New(), id.New()
	rec := ledger.Recorder{Type: "purchase", ID: id.New(), Number: "PO-1"}

	before := purchaseSet(f.product, oldSupplier, 4, "400", "100")
	require.NoError(t, f.svc.Sync(ctx, rec, nil, before))

	after := purchaseSet(f.product, newSupplier, 4, "400", "100")
	require.NoError(t, f.svc.Sync(ctx, rec, before, after))

	assert.Nil(t, f.store.Payable(oldSupplier))
	p := f.store.Payable(newSupplier)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.PurchaseCount)
	assert.True(t, p.Balance.Equal(dec("300")))
	assert.Equal(t, "PO-20240315-0001", p.InvoiceNumber)
	assert.Equal(t, int64(4), f.store.Stock(f.product))
}

func TestSync_SalesOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50)
	rec := ledger.Recorder{Type: "sales_order", ID: id.New(), Number: "SO-240315-001"}

	created := salesSet(f.product, 10, "1000", "1000", ledger.MethodHand)
	require.NoError(t, f.svc.Sync(ctx, rec, nil, created))

	assert.Equal(t, int64(40), f.store.Stock(f.product))
	r := f.store.Receivable(rec.ID)
	require.NotNil(t, r)
	assert.Equal(t, ledger.ReceivableReceived, r.Status)
	require.NotNil(t, f.store.Cash(ledger.SideSales, ledger.MethodHand, rec.ID))

	// Quantity 10 -> 5, partial payment by bank.
	updated := salesSet(f.product, 5, "500", "200", ledger.MethodBank)
	updated.Cash[0].AccountNumber = "ACC-1"
	require.NoError(t, f.svc.Sync(ctx, rec, created, updated))

	assert.Equal(t, int64(45), f.store.Stock(f.product))
	r = f.store.Receivable(rec.ID)
	require.NotNil(t, r)
	assert.Equal(t, ledger.ReceivablePartiallyPaid, r.Status)
	assert.True(t, r.Balance.Equal(dec("300")))
	assert.Nil(t, f.store.Cash(ledger.SideSales, ledger.MethodHand, rec.ID))
	bank := f.store.Cash(ledger.SideSales, ledger.MethodBank, rec.ID)
	require.NotNil(t, bank)
	assert.Equal(t, "ACC-1", bank.AccountNumber)
	assert.Equal(t, 1, f.store.CashCount())

	require.NoError(t, f.svc.Sync(ctx, rec, updated, nil))
	assert.Equal(t, int64(50), f.store.Stock(f.product))
	assert.Nil(t, f.store.Receivable(rec.ID))
	assert.Zero(t, f.store.CashCount())
	assert.Equal(t, int64(50), f.store.Warehouse(f.warehouse).TotalStock)
}

func TestSync_UnchangedSetWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50)
	rec := ledger.Recorder{Type: "sales_order", ID: id.New(), Number: "SO-240315-001"}

	set := salesSet(f.product, 10, "1000", "0", ledger.MethodHand)
	require.NoError(t, f.svc.Sync(ctx, rec, nil, set))
	auditBefore := len(f.store.AuditEntries())

	same := salesSet(f.product, 10, "1000", "0", ledger.MethodHand)
	require.NoError(t, f.svc.Sync(ctx, rec, set, same))

	assert.Len(t, f.store.AuditEntries(), auditBefore)
	assert.Equal(t, int64(40), f.store.Stock(f.product))
}

func TestSync_InsufficientStockLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	auditBefore := len(f.store.AuditEntries())
	rec := ledger.Recorder{Type: "sales_order", ID: id.New(), Number: "SO-240315-001"}

	err := f.svc.Sync(ctx, rec, nil, salesSet(f.product, 5, "500", "0", ledger.MethodHand))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Equal(t, int64(3), f.store.Stock(f.product))
	assert.Nil(t, f.store.Receivable(rec.ID))
	assert.Zero(t, f.store.CashCount())
	assert.Empty(t, f.store.Movements())
	assert.Empty(t, f.store.Events())
	assert.Len(t, f.store.AuditEntries(), auditBefore)
}

func TestSync_AuditFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	f.store.FailAudit = errors.New("audit unavailable")
	rec := ledger.Recorder{Type: "purchase", ID: id.New(), Number: "PO-1"}
	supplier := id.New()

	err := f.svc.Sync(ctx, rec, nil, purchaseSet(f.product, supplier, 5, "50", "0"))
	require.Error(t, err)

	assert.Equal(t, int64(10), f.store.Stock(f.product))
	assert.Nil(t, f.store.Payable(supplier))
	assert.Zero(t, f.store.CashCount())
}

func TestSync_StoredCashRowsAreReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50)
	rec := ledger.Recorder{Type: "sales_order", ID: id.New(), Number: "SO-240315-001"}

	// A row left on cheque without the before state knowing about it.
	require.NoError(t, f.store.UpsertCash(ctx, &ledger.CashRecord{
		ID: id.New(), Side: ledger.SideSales, Method: ledger.MethodCheque, SourceID: rec.ID,
		SourceType: "sales_order", TotalAmount: dec("10"), AmountPaid: dec("0"),
	}))

	require.NoError(t, f.svc.Sync(ctx, rec, nil, salesSet(f.product, 1, "100", "100", ledger.MethodHand)))

	assert.Nil(t, f.store.Cash(ledger.SideSales, ledger.MethodCheque, rec.ID))
	assert.NotNil(t, f.store.Cash(ledger.SideSales, ledger.MethodHand, rec.ID))
}

func TestApplyProductChange_AutoCreatedBrandFollowsProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 7)

	acme := f.store.Brand("Acme")
	require.NotNil(t, acme)
	assert.True(t, acme.AutoCreated)
	assert.Equal(t, int64(1), acme.TotalProducts)
	assert.Equal(t, int64(7), acme.TotalStock)

	before := &ledger.ProductSnapshot{ID: f.product, Brand: "Acme", Category: "Tools", WarehouseID: f.warehouse, Stock: 7}
	after := &ledger.ProductSnapshot{ID: f.product, Brand: "Bolt", Category: "Tools", WarehouseID: f.warehouse, Stock: 7}
	require.NoError(t, f.svc.ApplyProductChange(ctx, before, after))

	assert.Nil(t, f.store.Brand("Acme"), "auto-created brand without products is removed")
	bolt := f.store.Brand("Bolt")
	require.NotNil(t, bolt)
	assert.Equal(t, int64(1), bolt.TotalProducts)
	assert.Equal(t, int64(1), f.store.Category("Tools").TotalProducts)
	assert.Equal(t, int64(7), f.store.Warehouse(f.warehouse).TotalStock)
}

func TestApplyProductChange_ManualBrandIsKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.store.AddBrand("House")

	snap := &ledger.ProductSnapshot{ID: id.New(), Brand: "House", WarehouseID: f.warehouse, Stock: 2}
	require.NoError(t, f.svc.ApplyProductChange(ctx, nil, snap))
	require.NoError(t, f.svc.ApplyProductChange(ctx, snap, nil))

	house := f.store.Brand("House")
	require.NotNil(t, house)
	assert.Zero(t, house.TotalProducts)
	assert.Zero(t, house.TotalStock)
}

func TestRecalculateCounters_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12)
	second := ledger.ProductSnapshot{ID: id.New(), Brand: "Acme", Category: "Paint", WarehouseID: f.warehouse, Stock: 3}
	f.store.PutProduct(second)

	first, err := f.svc.RecalculateCounters(ctx)
	require.NoError(t, err)
	again, err := f.svc.RecalculateCounters(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, int64(2), first.Products)
	assert.Equal(t, int64(15), first.Stock)
	assert.Equal(t, int64(2), f.store.Brand("Acme").TotalProducts)
	assert.Equal(t, int64(1), f.store.Category("Paint").TotalProducts)
	assert.Equal(t, int64(15), f.store.Warehouse(f.warehouse).TotalStock)
}

func TestRefreshOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	rec := ledger.Recorder{Type: "sales_order", ID: id.New(), Number: "SO-240315-001"}
	require.NoError(t, f.svc.Sync(ctx, rec, nil, salesSet(f.product, 1, "100", "0", ledger.MethodHand)))

	n, err := f.svc.RefreshOverdue(ctx, now.AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, ledger.ReceivableOverdue, f.store.Receivable(rec.ID).Status)

	n, err = f.svc.RefreshOverdue(ctx, now.AddDate(0, 0, 32))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListCash_RejectsUnknownLedger(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.ListCash(context.Background(), ledger.Side("rental"), ledger.MethodHand, domain.DefaultListFilter())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
