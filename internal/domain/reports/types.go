// Package reports computes the profit and loss statement, the balance sheet
// and the per-domain reports from documents and ledgers.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/id"
)

// RangeFilter scopes a report to a date range and optionally a warehouse.
type RangeFilter struct {
	From        *time.Time
	To          *time.Time
	WarehouseID *id.ID
}

// Period is a resolved report range; To is exclusive.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ProfitLossTotals are the raw sums the statement is derived from.
type ProfitLossTotals struct {
	GrossSales      decimal.Decimal `db:"gross_sales"`
	SalesReturns    decimal.Decimal `db:"sales_returns"`
	Purchases       decimal.Decimal `db:"purchases"`
	PurchaseReturns decimal.Decimal `db:"purchase_returns"`
	Expenses        decimal.Decimal `db:"expenses"`
}

// ProfitLoss is the profit and loss statement for a period.
type ProfitLoss struct {
	Period      Period `json:"period"`
	WarehouseID *id.ID `json:"warehouseId,omitempty"`

	GrossSales      decimal.Decimal `json:"grossSales"`
	SalesReturns    decimal.Decimal `json:"salesReturns"`
	NetSales        decimal.Decimal `json:"netSales"`
	Purchases       decimal.Decimal `json:"purchases"`
	PurchaseReturns decimal.Decimal `json:"purchaseReturns"`
	COGS            decimal.Decimal `json:"cogs"`
	GrossProfit     decimal.Decimal `json:"grossProfit"`
	Expenses        decimal.Decimal `json:"expenses"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// NewProfitLoss derives the statement lines from the raw sums.
func NewProfitLoss(period Period, t ProfitLossTotals) *ProfitLoss {
	p := &ProfitLoss{
		Period:          period,
		GrossSales:      t.GrossSales,
		SalesReturns:    t.SalesReturns,
		Purchases:       t.Purchases,
		PurchaseReturns: t.PurchaseReturns,
		Expenses:        t.Expenses,
	}
	p.NetSales = p.GrossSales.Sub(p.SalesReturns)
	p.COGS = p.Purchases.Sub(p.PurchaseReturns)
	p.GrossProfit = p.NetSales.Sub(p.COGS)
	p.NetProfit = p.GrossProfit.Sub(p.Expenses)
	return p
}

// CashBalance is what went through one cash method.
type CashBalance struct {
	Method   string          `db:"method" json:"method"`
	Received decimal.Decimal `db:"received" json:"received"`
	Paid     decimal.Decimal `db:"paid" json:"paid"`
	Balance  decimal.Decimal `db:"-" json:"balance"`
}

// BalanceTotals are the raw sums of the balance sheet.
type BalanceTotals struct {
	Cash        []CashBalance
	Receivables decimal.Decimal
	Inventory   decimal.Decimal
	Payables    decimal.Decimal
}

// Assets side of the balance sheet.
type Assets struct {
	Cash        []CashBalance   `json:"cash"`
	TotalCash   decimal.Decimal `json:"totalCash"`
	Receivables decimal.Decimal `json:"receivables"`
	Inventory   decimal.Decimal `json:"inventory"`
	Total       decimal.Decimal `json:"total"`
}

// Liabilities side of the balance sheet.
type Liabilities struct {
	Payables decimal.Decimal `json:"payables"`
	Total    decimal.Decimal `json:"total"`
}

// BalanceSheet is assets, liabilities and equity as of a moment.
type BalanceSheet struct {
	AsOf        time.Time       `json:"asOf"`
	Assets      Assets          `json:"assets"`
	Liabilities Liabilities     `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
}

// NewBalanceSheet derives the balance sheet from the raw sums.
func NewBalanceSheet(asOf time.Time, t BalanceTotals) *BalanceSheet {
	b := &BalanceSheet{AsOf: asOf}

	b.Assets.Cash = make([]CashBalance, 0, len(t.Cash))
	for _, c := range t.Cash {
		c.Balance = c.Received.Sub(c.Paid)
		b.Assets.Cash = append(b.Assets.Cash, c)
		b.Assets.TotalCash = b.Assets.TotalCash.Add(c.Balance)
	}
	b.Assets.Receivables = t.Receivables
	b.Assets.Inventory = t.Inventory
	b.Assets.Total = b.Assets.TotalCash.Add(t.Receivables).Add(t.Inventory)

	b.Liabilities.Payables = t.Payables
	b.Liabilities.Total = t.Payables

	b.Equity = b.Assets.Total.Sub(b.Liabilities.Total)
	return b
}

// SalesDay is the sales report row of one day.
type SalesDay struct {
	Day      time.Time       `db:"day" json:"day"`
	Orders   int64           `db:"orders" json:"orders"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Total    decimal.Decimal `db:"total" json:"total"`
	Paid     decimal.Decimal `db:"paid" json:"paid"`
}

// SupplierPurchases is the purchase report row of one supplier.
type SupplierPurchases struct {
	SupplierID   *id.ID          `db:"supplier_id" json:"supplierId,omitempty"`
	SupplierName string          `db:"supplier_name" json:"supplierName"`
	Purchases    int64           `db:"purchases" json:"purchases"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	Total        decimal.Decimal `db:"total" json:"total"`
	Paid         decimal.Decimal `db:"paid" json:"paid"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
}

// CategoryExpenses is the expense report row of one category.
type CategoryExpenses struct {
	Category string          `db:"category" json:"category"`
	Count    int64           `db:"count" json:"count"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

// StockItem is the stock report row of one product.
type StockItem struct {
	ProductID     id.ID           `db:"product_id" json:"id"`
	Code          string          `db:"code" json:"productId"`
	Name          string          `db:"name" json:"name"`
	WarehouseID   id.ID           `db:"warehouse_id" json:"warehouseId"`
	WarehouseName string          `db:"warehouse_name" json:"warehouseName"`
	Brand         string          `db:"brand" json:"brand"`
	Category      string          `db:"category" json:"category"`
	Stock         int64           `db:"stock" json:"stock"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Value         decimal.Decimal `db:"value" json:"value"`
}

// Report wraps the rows of a per-domain report with its period and totals.
type Report[T any] struct {
	Period *Period         `json:"period,omitempty"`
	Items  []T             `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// JournalFilter selects documents for the journal.
type JournalFilter struct {
	From   *time.Time
	To     *time.Time
	Types  []string
	Limit  int
	Offset int
}

// Document types of the journal.
const (
	DocPurchase       = "purchase"
	DocSalesOrder     = "sales_order"
	DocPurchaseReturn = "purchase_return"
	DocSalesReturn    = "sales_return"
	DocExpense        = "expense"
)

// JournalTypes lists every journal document type.
var JournalTypes = []string{DocPurchase, DocSalesOrder, DocPurchaseReturn, DocSalesReturn, DocExpense}

// JournalItem is one document in the journal.
type JournalItem struct {
	DocumentType string          `db:"document_type" json:"documentType"`
	ID           id.ID           `db:"id" json:"id"`
	Number       string          `db:"number" json:"number"`
	Date         time.Time       `db:"date" json:"date"`
	Party        string          `db:"party" json:"party"`
	Total        decimal.Decimal `db:"total" json:"total"`
	Status       string          `db:"status" json:"status"`
}

// Journal is a page of the document journal.
type Journal struct {
	Period     Period        `json:"period"`
	Items      []JournalItem `json:"items"`
	TotalCount int64         `json:"totalCount"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// Table is a report laid out for spreadsheet export.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]any
}
