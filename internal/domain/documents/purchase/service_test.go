package purchase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/domain/documents/documentstest"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/ledger/ledgertest"
)

func clonePurchase(p *purchase.Purchase) *purchase.Purchase {
	c := *p
	c.Payments = append([]purchase.Payment(nil), p.Payments...)
	if p.SupplierID != nil {
		s := *p.SupplierID
		c.SupplierID = &s
	}
	return &c
}

// returnsFake reports returned quantities set by the test.
type returnsFake map[id.ID]int64

func (f returnsFake) SumReturnedQuantity(_ context.Context, orderID, _ id.ID) (int64, error) {
	return f[orderID], nil
}

type fixture struct {
	store     *ledgertest.Store
	purchases *documentstest.Repo[*purchase.Purchase]
	svc       *purchase.Service
	returned  returnsFake
	supplier  id.ID
	product   id.ID
	other     id.ID
	wh        id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledgertest.New()
	cat := documentstest.NewCatalog(store)
	repo := documentstest.NewRepo(clonePurchase)

	f := &fixture{store: store, purchases: repo, returned: returnsFake{}, supplier: cat.AddSupplier("Globex")}
	f.wh = cat.AddWarehouse("Main")
	f.product = cat.AddProduct("P-1", f.wh, "5", 0)
	f.other = cat.AddProduct("P-2", f.wh, "5", 0)

	ledgerSvc := ledger.NewService(ledger.Config{
		Stores:    store.Stores(),
		TxManager: store,
		Audit:     store,
		Outbox:    store,
	})
	txm := &documentstest.Tx{Store: store, Repos: []documentstest.Snapshotter{repo}}
	f.svc = purchase.NewService(repo, txm, &numerator.MockGenerator{}, ledgerSvc, cat.References(), f.returned)
	return f
}

func (f *fixture) purchase(qty int64, unitPrice string, payments ...purchase.Payment) *purchase.Purchase {
	p := purchase.NewPurchase()
	supplier := f.supplier
	p.SupplierID = &supplier
	p.ProductID = f.product
	p.WarehouseID = f.wh
	p.Quantity = qty
	p.UnitPrice = decimal.RequireFromString(unitPrice)
	p.Payments = payments
	return p
}

func pay(amount string, pt ledger.PaymentType) purchase.Payment {
	p := purchase.Payment{Amount: decimal.RequireFromString(amount), Type: pt}
	if pt == ledger.PaymentBank {
		p.AccountNumber = "ACC-1"
	}
	return p
}

func TestCreate_AppliesPayableStockAndCash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.purchase(20, "5", pay("30", ledger.PaymentCash), pay("20", ledger.PaymentBank), pay("10", ledger.PaymentCash))
	require.NoError(t, f.svc.Create(ctx, p))

	assert.Regexp(t, `^PO-\d{8}-0001$`, p.Number)
	assert.Equal(t, "Globex", p.SupplierName)
	assert.True(t, p.Total.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.AmountPaid.Equal(decimal.NewFromInt(60)))
	assert.True(t, p.Balance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, []int{1, 2, 3}, []int{p.Payments[0].LineNo, p.Payments[1].LineNo, p.Payments[2].LineNo})

	assert.Equal(t, int64(20), f.store.Stock(f.product))

	ap := f.store.Payable(f.supplier)
	require.NotNil(t, ap)
	assert.Equal(t, p.Number, ap.InvoiceNumber)
	assert.True(t, ap.Balance.Equal(decimal.NewFromInt(40)))

	hand := f.store.Cash(ledger.SidePurchase, ledger.MethodHand, p.ID)
	require.NotNil(t, hand)
	assert.True(t, hand.AmountPaid.Equal(decimal.NewFromInt(40)))
	assert.True(t, hand.TotalAmount.Equal(decimal.NewFromInt(100)))
	bank := f.store.Cash(ledger.SidePurchase, ledger.MethodBank, p.ID)
	require.NotNil(t, bank)
	assert.Equal(t, "ACC-1", bank.AccountNumber)
	assert.Equal(t, 2, f.store.CashCount())
}

func TestCreate_TwoPurchasesCollapseIntoOnePayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.purchase(10, "10", pay("40", ledger.PaymentCash))
	require.NoError(t, f.svc.Create(ctx, first))
	second := f.purchase(5, "10")
	require.NoError(t, f.svc.Create(ctx, second))

	ap := f.store.Payable(f.supplier)
	require.NotNil(t, ap)
	assert.Equal(t, first.Number, ap.InvoiceNumber)
	assert.True(t, ap.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, ap.Balance.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, ledger.PayablePartiallyPaid, ap.Status)
}

func TestCreate_PaymentsAboveTotal(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Create(context.Background(), f.purchase(1, "10", pay("11", ledger.PaymentCash)))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Equal(t, 0, f.purchases.Len())
	assert.Nil(t, f.store.Payable(f.supplier))
}

func TestCreate_BankPaymentNeedsAccount(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(1, "10", purchase.Payment{Amount: decimal.NewFromInt(5), Type: ledger.PaymentBank})

	err := f.svc.Create(context.Background(), p)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestUpdate_CancelRemovesStockButKeepsPayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.purchase(10, "10")
	require.NoError(t, f.svc.Create(ctx, p))
	assert.Equal(t, int64(10), f.store.Stock(f.product))

	p.Status = purchase.StatusCancelled
	require.NoError(t, f.svc.Update(ctx, p))

	assert.Equal(t, int64(0), f.store.Stock(f.product))
	assert.NotNil(t, f.store.Payable(f.supplier))
}

func TestDelete_RemovesPayableWithLastPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.purchase(10, "10", pay("100", ledger.PaymentCheque))
	require.NoError(t, f.svc.Create(ctx, p))
	require.NoError(t, f.svc.Delete(ctx, p.ID))

	assert.Nil(t, f.store.Payable(f.supplier))
	assert.Equal(t, int64(0), f.store.Stock(f.product))
	assert.Equal(t, 0, f.store.CashCount())
}

func TestUpdate_GuardedWhileReturnsExist(t *testing.T) {
	tests := []struct {
		name string
		edit func(p *purchase.Purchase, other id.ID)
		code string
	}{
		{"cancel", func(p *purchase.Purchase, _ id.ID) { p.Status = purchase.StatusCancelled }, apperror.CodeOrderHasReturns},
		{"product change", func(p *purchase.Purchase, other id.ID) { p.ProductID = other }, apperror.CodeOrderHasReturns},
		{"quantity below returned", func(p *purchase.Purchase, _ id.ID) { p.Quantity = 3 }, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			p := f.purchase(10, "10")
			require.NoError(t, f.svc.Create(ctx, p))
			f.returned[p.ID] = 4

			tt.edit(p, f.other)
			err := f.svc.Update(ctx, p)
			assert.True(t, apperror.HasCode(err, tt.code))
			assert.Equal(t, int64(10), f.store.Stock(f.product))
		})
	}
}
