package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/id"
)

// EntrySet is the ledger effect of one document state.
// A document produces one EntrySet for the state before a write and one for
// the state after it; nil stands for "document does not exist".
type EntrySet struct {
	Stock      []StockEntry
	Payable    *PayableEntry
	Receivable *ReceivableEntry
	Cash       []CashEntry
}

// StockEntry is a signed stock effect: receipts are positive, issues negative.
type StockEntry struct {
	ProductID id.ID
	Quantity  int64
}

// PayableEntry is the contribution of one purchase to its supplier's payable.
type PayableEntry struct {
	SupplierID    id.ID
	SupplierName  string
	InvoiceNumber string
	Total         decimal.Decimal
	Paid          decimal.Decimal
}

// ReceivableEntry is the receivable a sales order owns.
type ReceivableEntry struct {
	InvoiceNumber string
	CustomerID    *id.ID
	CustomerName  string
	Amount        decimal.Decimal
	Paid          decimal.Decimal
	DueDate       time.Time
}

// CashEntry is one cash ledger row a document owns. The source of the row is
// the recorder, so (Side, Method) is unique within one EntrySet.
type CashEntry struct {
	Side          Side
	Method        Method
	Reference     string
	TransactionID string
	PartyName     string
	TotalAmount   decimal.Decimal
	AmountPaid    decimal.Decimal
	AccountNumber string
	Date          time.Time
}

func (e CashEntry) equal(o CashEntry) bool {
	return e.Side == o.Side &&
		e.Method == o.Method &&
		e.Reference == o.Reference &&
		e.TransactionID == o.TransactionID &&
		e.PartyName == o.PartyName &&
		e.TotalAmount.Equal(o.TotalAmount) &&
		e.AmountPaid.Equal(o.AmountPaid) &&
		e.AccountNumber == o.AccountNumber &&
		e.Date.Equal(o.Date)
}

func (e *ReceivableEntry) equal(o *ReceivableEntry) bool {
	return e.InvoiceNumber == o.InvoiceNumber &&
		sameID(e.CustomerID, o.CustomerID) &&
		e.CustomerName == o.CustomerName &&
		e.Amount.Equal(o.Amount) &&
		e.Paid.Equal(o.Paid) &&
		e.DueDate.Equal(o.DueDate)
}

func sameID(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// stockDelta is a net change for one product.
type stockDelta struct {
	ProductID id.ID
	Delta     int64
}

// stockDeltas nets after minus before per product. The result is sorted by
// product id so concurrent commands lock products in the same order.
func stockDeltas(before, after *EntrySet) []stockDelta {
	net := make(map[id.ID]int64)
	if before != nil {
		for _, e := range before.Stock {
			net[e.ProductID] -= e.Quantity
		}
	}
	if after != nil {
		for _, e := range after.Stock {
			net[e.ProductID] += e.Quantity
		}
	}

	out := make([]stockDelta, 0, len(net))
	for productID, delta := range net {
		if delta != 0 {
			out = append(out, stockDelta{ProductID: productID, Delta: delta})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// payableDelta is a signed change for one supplier's payable.
type payableDelta struct {
	Entry     PayableEntry
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Purchases int
}

func (d payableDelta) isZero() bool {
	return d.Total.IsZero() && d.Paid.IsZero() && d.Purchases == 0
}

// payableDeltas turns a before/after pair into per-supplier deltas. A supplier
// change yields a removal from the old supplier and an addition to the new one.
// The removal comes first so an order moved between suppliers frees its
// invoice number before the new payable may claim it.
func payableDeltas(before, after *PayableEntry) []payableDelta {
	switch {
	case before == nil && after == nil:
		return nil
	case before == nil:
		return []payableDelta{{Entry: *after, Total: after.Total, Paid: after.Paid, Purchases: 1}}
	case after == nil:
		return []payableDelta{{Entry: *before, Total: before.Total.Neg(), Paid: before.Paid.Neg(), Purchases: -1}}
	case before.SupplierID != after.SupplierID:
		return []payableDelta{
			{Entry: *before, Total: before.Total.Neg(), Paid: before.Paid.Neg(), Purchases: -1},
			{Entry: *after, Total: after.Total, Paid: after.Paid, Purchases: 1},
		}
	}

	d := payableDelta{
		Entry: *after,
		Total: after.Total.Sub(before.Total),
		Paid:  after.Paid.Sub(before.Paid),
	}
	if d.isZero() && before.SupplierName == after.SupplierName {
		return nil
	}
	return []payableDelta{d}
}

// counterDeltas computes the counter changes of a product write. Removing the
// before state and adding the after state nets out when a field is unchanged.
func counterDeltas(before, after *ProductSnapshot) []CounterDelta {
	type key struct {
		kind CounterKind
		name string
		wh   id.ID
	}
	net := make(map[key]*CounterDelta)
	var order []key

	add := func(k key, products, stock int64) {
		d, ok := net[k]
		if !ok {
			d = &CounterDelta{Kind: k.kind, Name: k.name, WarehouseID: k.wh}
			net[k] = d
			order = append(order, k)
		}
		d.Products += products
		d.Stock += stock
	}

	apply := func(p *ProductSnapshot, sign int64) {
		if p == nil {
			return
		}
		if p.Brand != "" {
			add(key{kind: CounterBrand, name: p.Brand}, sign, sign*p.Stock)
		}
		if p.Category != "" {
			add(key{kind: CounterCategory, name: p.Category}, sign, sign*p.Stock)
		}
		if !id.IsNil(p.WarehouseID) {
			add(key{kind: CounterWarehouse, wh: p.WarehouseID}, sign, sign*p.Stock)
		}
	}

	apply(before, -1)
	apply(after, 1)

	out := make([]CounterDelta, 0, len(order))
	for _, k := range order {
		if d := net[k]; !d.IsZero() {
			out = append(out, *d)
		}
	}
	return out
}

// stockCounterDeltas attributes a stock change to the product's counters.
func stockCounterDeltas(change StockChange, delta int64) []CounterDelta {
	before := &ProductSnapshot{
		ID:          change.ProductID,
		Brand:       change.Brand,
		Category:    change.Category,
		WarehouseID: change.WarehouseID,
		Stock:       change.Stock - delta,
	}
	after := *before
	after.Stock = change.Stock
	return counterDeltas(before, &after)
}
