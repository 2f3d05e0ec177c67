// Package purchase provides the Purchase document: goods bought from a
// supplier, paid by any number of payments.
package purchase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/core/types"
	"bizbook/internal/domain/ledger"
)

// RecorderType names purchases in ledger records.
const RecorderType = "purchase"

// Status of a purchase.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusReceived  Status = "Received"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus validates s; empty means Received.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case "":
		return StatusReceived, nil
	case StatusPending:
		return StatusPending, nil
	case StatusReceived:
		return StatusReceived, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", apperror.NewValidation("invalid purchase status").
		WithDetail("field", "status").
		WithDetail("allowed", []Status{StatusPending, StatusReceived, StatusCancelled})
}

// Payment is one payment made against a purchase.
type Payment struct {
	LineNo        int                `db:"line_no" json:"lineNo"`
	Amount        decimal.Decimal    `db:"amount" json:"amount"`
	Type          ledger.PaymentType `db:"payment_type" json:"type"`
	AccountNumber string             `db:"account_number" json:"accountNumber,omitempty"`
	PaidAt        *time.Time         `db:"paid_at" json:"date,omitempty"`
}

// Purchase is a purchase order; Number is the orderId (PO-20240101-0001).
type Purchase struct {
	entity.Document

	SupplierID   *id.ID `db:"supplier_id" json:"supplierId"`
	SupplierName string `db:"supplier_name" json:"supplierName"`
	ProductID    id.ID  `db:"product_id" json:"productId"`
	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`

	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Total     decimal.Decimal `db:"total" json:"total"`

	// Derived from Payments
	AmountPaid decimal.Decimal `db:"amount_paid" json:"amountPaid"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`

	Status Status `db:"status" json:"status"`

	Payments []Payment `db:"-" json:"payments"`
}

// NewPurchase creates a purchase dated now.
func NewPurchase() *Purchase {
	return &Purchase{
		Document: entity.NewDocument(),
		Status:   StatusReceived,
		Payments: []Payment{},
	}
}

// Recalculate derives total (when not given), amount paid and balance, and
// numbers the payments.
func (p *Purchase) Recalculate() {
	if p.Total.IsZero() && p.UnitPrice.IsPositive() {
		p.Total = types.Multiply(p.UnitPrice, p.Quantity)
	}
	paid := decimal.Zero
	for i := range p.Payments {
		p.Payments[i].LineNo = i + 1
		paid = paid.Add(p.Payments[i].Amount)
	}
	p.AmountPaid = paid
	p.Balance = ledger.Balance(p.Total, paid)
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if p.SupplierID == nil || id.IsNil(*p.SupplierID) {
		return apperror.NewValidation("supplierId is required").WithDetail("field", "supplierId")
	}
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("productId is required").WithDetail("field", "productId")
	}
	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouseId is required").WithDetail("field", "warehouseId")
	}
	if p.Quantity <= 0 {
		return apperror.NewValidation("quantity must be greater than zero").WithDetail("field", "quantity")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unitPrice must not be negative").WithDetail("field", "unitPrice")
	}
	if p.Total.IsNegative() {
		return apperror.NewValidation("total must not be negative").WithDetail("field", "total")
	}
	if _, err := ParseStatus(string(p.Status)); err != nil {
		return err
	}

	paid := decimal.Zero
	for i, pay := range p.Payments {
		if !pay.Amount.IsPositive() {
			return apperror.NewValidation("payment amount must be greater than zero").
				WithDetail("field", "payments").
				WithDetail("lineNo", i+1)
		}
		if _, err := ledger.ParsePaymentType(string(pay.Type)); err != nil {
			return err
		}
		if pay.Type.RequiresAccount() && strings.TrimSpace(pay.AccountNumber) == "" {
			return apperror.NewValidation("accountNumber is required for bank payments").
				WithDetail("field", "payments").
				WithDetail("lineNo", i+1)
		}
		paid = paid.Add(pay.Amount)
	}
	if paid.GreaterThan(p.Total) {
		return apperror.NewValidation("payments exceed the purchase total").
			WithDetail("field", "payments").
			WithDetail("total", p.Total).
			WithDetail("paid", paid)
	}
	return nil
}

// Recorder implements documents.Document.
func (p *Purchase) Recorder() ledger.Recorder {
	return ledger.Recorder{Type: RecorderType, ID: p.ID, Number: p.Number}
}

// Entries implements documents.Document: the supplier payable, the stock
// receipt unless cancelled, and one purchase-side cash row per payment type.
func (p *Purchase) Entries() *ledger.EntrySet {
	set := &ledger.EntrySet{}

	if p.Status != StatusCancelled {
		set.Stock = []ledger.StockEntry{{ProductID: p.ProductID, Quantity: p.Quantity}}
	}

	if p.SupplierID != nil {
		set.Payable = &ledger.PayableEntry{
			SupplierID:    *p.SupplierID,
			SupplierName:  p.SupplierName,
			InvoiceNumber: p.Number,
			Total:         p.Total,
			Paid:          p.AmountPaid,
		}
	}

	byMethod := make(map[ledger.Method]*ledger.CashEntry)
	for _, pay := range p.Payments {
		method := pay.Type.Method()
		e, ok := byMethod[method]
		if !ok {
			e = &ledger.CashEntry{
				Side:        ledger.SidePurchase,
				Method:      method,
				Reference:   p.Number,
				PartyName:   p.SupplierName,
				TotalAmount: p.Total,
				AmountPaid:  decimal.Zero,
				Date:        p.Date,
			}
			byMethod[method] = e
		}
		e.AmountPaid = e.AmountPaid.Add(pay.Amount)
		if e.AccountNumber == "" {
			e.AccountNumber = pay.AccountNumber
		}
	}
	for _, method := range ledger.Methods {
		if e, ok := byMethod[method]; ok {
			set.Cash = append(set.Cash, *e)
		}
	}
	return set
}
