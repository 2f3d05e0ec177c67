// Package ledger owns every derived record of the system: product stock,
// accounts payable and receivable, the cash ledgers and the aggregate
// counters on brands, categories and warehouses. Documents describe their
// effect as an EntrySet and the Service applies the difference.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
)

// Side separates purchase-side and sales-side cash ledgers.
type Side string

const (
	SidePurchase Side = "purchase"
	SideSales    Side = "sales"
)

// Method is the cash ledger a payment lands in.
type Method string

const (
	MethodHand   Method = "hand"
	MethodBank   Method = "bank"
	MethodCheque Method = "cheque"
)

// Methods lists all cash ledger methods in display order.
var Methods = []Method{MethodHand, MethodBank, MethodCheque}

// PaymentType is the payment kind documents carry.
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentBank   PaymentType = "Bank"
	PaymentCheque PaymentType = "Cheque"
)

// ParsePaymentType accepts the canonical names case-insensitively.
func ParsePaymentType(s string) (PaymentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, nil
	case "bank":
		return PaymentBank, nil
	case "cheque", "check":
		return PaymentCheque, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown payment type %q", s)).
		WithDetail("field", "paymentType").
		WithDetail("allowed", []PaymentType{PaymentCash, PaymentBank, PaymentCheque})
}

// Method maps a payment type to its cash ledger: Cash→hand, Bank→bank, Cheque→cheque.
func (p PaymentType) Method() Method {
	switch p {
	case PaymentBank:
		return MethodBank
	case PaymentCheque:
		return MethodCheque
	default:
		return MethodHand
	}
}

// RequiresAccount reports whether the payment needs an account number.
func (p PaymentType) RequiresAccount() bool {
	return p == PaymentBank
}

// Recorder identifies the document that caused a ledger change.
type Recorder struct {
	Type   string `json:"type"`
	ID     id.ID  `json:"id"`
	Number string `json:"number"`
}

// Payable is the single account payable record of a supplier.
type Payable struct {
	ID            id.ID           `db:"id" json:"id"`
	SupplierID    id.ID           `db:"supplier_id" json:"supplierId"`
	SupplierName  string          `db:"supplier_name" json:"supplierName"`
	InvoiceNumber string          `db:"invoice_number" json:"invoiceNumber"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amountPaid"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	Status        PayableStatus   `db:"status" json:"status"`
	PurchaseCount int             `db:"purchase_count" json:"purchaseCount"`
	Version       int             `db:"version" json:"version"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewPayable creates an empty payable for a supplier.
func NewPayable(supplierID id.ID, supplierName, invoiceNumber string) *Payable {
	now := time.Now().UTC()
	p := &Payable{
		ID:            id.New(),
		SupplierID:    supplierID,
		SupplierName:  supplierName,
		InvoiceNumber: invoiceNumber,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.recalculate()
	return p
}

// ApplyDelta adds signed amounts and a purchase count delta.
func (p *Payable) ApplyDelta(total, paid decimal.Decimal, purchases int) {
	p.TotalAmount = p.TotalAmount.Add(total)
	p.AmountPaid = p.AmountPaid.Add(paid)
	p.PurchaseCount += purchases
	p.recalculate()
}

// Empty reports whether no purchase contributes to the payable any more.
func (p *Payable) Empty() bool {
	return p.PurchaseCount <= 0
}

func (p *Payable) recalculate() {
	p.Balance = Balance(p.TotalAmount, p.AmountPaid)
	p.Status = PayableStatusFor(p.TotalAmount, p.AmountPaid)
}

// Receivable is the account receivable of one sales order.
type Receivable struct {
	ID            id.ID            `db:"id" json:"id"`
	SalesOrderID  id.ID            `db:"sales_order_id" json:"salesOrderId"`
	InvoiceNumber string           `db:"invoice_number" json:"invoiceNumber"`
	CustomerID    *id.ID           `db:"customer_id" json:"customerId,omitempty"`
	CustomerName  string           `db:"customer_name" json:"customerName"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	AmountPaid    decimal.Decimal  `db:"amount_paid" json:"amountPaid"`
	Balance       decimal.Decimal  `db:"balance" json:"balance"`
	Status        ReceivableStatus `db:"status" json:"status"`
	DueDate       time.Time        `db:"due_date" json:"dueDate"`
	Version       int              `db:"version" json:"version"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// Recalculate refreshes balance and status against now.
func (r *Receivable) Recalculate(now time.Time) {
	r.Balance = Balance(r.Amount, r.AmountPaid)
	r.Status = ReceivableStatusFor(r.Amount, r.AmountPaid, r.DueDate, now)
}

// CashRecord is one row of a cash ledger.
type CashRecord struct {
	ID            id.ID           `db:"id" json:"id"`
	Side          Side            `db:"side" json:"side"`
	Method        Method          `db:"method" json:"method"`
	SourceType    string          `db:"source_type" json:"sourceType"`
	SourceID      id.ID           `db:"source_id" json:"sourceId"`
	Reference     string          `db:"reference" json:"reference"`
	TransactionID string          `db:"transaction_id" json:"transactionId,omitempty"`
	PartyName     string          `db:"party_name" json:"partyName"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amountPaid"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	Status        CashStatus      `db:"status" json:"status"`
	AccountNumber string          `db:"account_number" json:"accountNumber,omitempty"`
	EntryDate     time.Time       `db:"entry_date" json:"date"`
	Version       int             `db:"version" json:"version"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// CashKey identifies a cash row: one per side, method and source document.
type CashKey struct {
	Side     Side
	Method   Method
	SourceID id.ID
}

// Key returns the identity of the row.
func (c *CashRecord) Key() CashKey {
	return CashKey{Side: c.Side, Method: c.Method, SourceID: c.SourceID}
}

// CounterKind names an aggregate counter table.
type CounterKind string

const (
	CounterBrand     CounterKind = "brand"
	CounterCategory  CounterKind = "category"
	CounterWarehouse CounterKind = "warehouse"
)

// CounterDelta is a signed change of one counter target.
// Brands and categories are addressed by name, warehouses by id.
type CounterDelta struct {
	Kind        CounterKind
	Name        string
	WarehouseID id.ID
	Products    int64
	Stock       int64
}

// IsZero reports whether the delta changes nothing.
func (d CounterDelta) IsZero() bool {
	return d.Products == 0 && d.Stock == 0
}

// CounterState is the value of a counter after a delta was applied.
type CounterState struct {
	ID            id.ID
	TotalProducts int64
	TotalStock    int64
	AutoCreated   bool
}

// ProductSnapshot is the part of a product the counters depend on.
type ProductSnapshot struct {
	ID          id.ID
	Brand       string
	Category    string
	WarehouseID id.ID
	Stock       int64
}

// StockChange is the result of applying a stock delta to a product.
type StockChange struct {
	ProductID   id.ID  `db:"id"`
	Brand       string `db:"brand"`
	Category    string `db:"category"`
	WarehouseID id.ID  `db:"warehouse_id"`
	Stock       int64  `db:"stock"`
}

// CounterTotals summarizes a full recount.
type CounterTotals struct {
	Brands     int64 `json:"brands"`
	Categories int64 `json:"categories"`
	Warehouses int64 `json:"warehouses"`
	Products   int64 `json:"products"`
	Stock      int64 `json:"stock"`
}
