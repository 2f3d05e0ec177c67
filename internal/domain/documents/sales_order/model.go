// Package sales_order provides the SalesOrder document.
package sales_order

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

// RecorderType names sales orders in ledger records.
const RecorderType = "sales_order"

// Status of a sales order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus validates s; empty means Pending.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", apperror.NewValidation("invalid sales order status").
		WithDetail("field", "status").
		WithDetail("allowed", []Status{StatusPending, StatusCompleted, StatusCancelled})
}

// SalesOrder sells a quantity of one product; Number is the orderNumber
// (SO-240101-001). Date is the order date.
type SalesOrder struct {
	entity.Document

	CustomerID   *id.ID `db:"customer_id" json:"customerId"`
	CustomerName string `db:"customer_name" json:"customerName"`
	ProductID    id.ID  `db:"product_id" json:"productId"`
	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`

	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Total     decimal.Decimal `db:"total" json:"total"`

	PaymentAmount decimal.Decimal    `db:"payment_amount" json:"paymentAmount"`
	PaymentType   ledger.PaymentType `db:"payment_type" json:"paymentType"`
	AccountNumber string             `db:"account_number" json:"accountNumber,omitempty"`
	Balance       decimal.Decimal    `db:"balance" json:"balance"`

	DueDate time.Time `db:"due_date" json:"dueDate"`
	Status  Status    `db:"status" json:"status"`
}

// NewSalesOrder creates a pending order dated now.
func NewSalesOrder() *SalesOrder {
	return &SalesOrder{
		Document:    entity.NewDocument(),
		PaymentType: ledger.PaymentCash,
		Status:      StatusPending,
	}
}

// Recalculate fills the default total and due date and the balance.
func (o *SalesOrder) Recalculate() {
	if o.Total.IsZero() && o.UnitPrice.IsPositive() {
		o.Total = types.Multiply(o.UnitPrice, o.Quantity)
	}
	if o.DueDate.IsZero() {
		o.DueDate = o.Date
	}
	o.Balance = ledger.Balance(o.Total, o.PaymentAmount)
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if o.CustomerID == nil || id.IsNil(*o.CustomerID) {
		return apperror.NewValidation("customerId is required").WithDetail("field", "customerId")
	}
	if id.IsNil(o.ProductID) {
		return apperror.NewValidation("productId is required").WithDetail("field", "productId")
	}
	if id.IsNil(o.WarehouseID) {
		return apperror.NewValidation("warehouseId is required").WithDetail("field", "warehouseId")
	}
	if o.Quantity <= 0 {
		return apperror.NewValidation("quantity must be greater than zero").WithDetail("field", "quantity")
	}
	if o.UnitPrice.IsNegative() {
		return apperror.NewValidation("unitPrice must not be negative").WithDetail("field", "unitPrice")
	}
	if o.Total.IsNegative() {
		return apperror.NewValidation("total must not be negative").WithDetail("field", "total")
	}
	if o.PaymentAmount.IsNegative() || o.PaymentAmount.GreaterThan(o.Total) {
		return apperror.NewValidation("paymentAmount must be between 0 and total").
			WithDetail("field", "paymentAmount").
			WithDetail("total", o.Total)
	}
	if _, err := ledger.ParsePaymentType(string(o.PaymentType)); err != nil {
		return err
	}
	if o.PaymentType.RequiresAccount() && strings.TrimSpace(o.AccountNumber) == "" {
		return apperror.NewValidation("accountNumber is required for bank payments").
			WithDetail("field", "accountNumber")
	}
	if !o.DueDate.IsZero() && o.DueDate.Before(o.Date) {
		return apperror.NewValidation("dueDate must not be before orderDate").
			WithDetail("field", "dueDate")
	}
	if _, err := ParseStatus(string(o.Status)); err != nil {
		return err
	}
	return nil
}

// TransactionID is the synthesized id of the order's cash ledger row.
func (o *SalesOrder) TransactionID() string {
	return "TXN-" + o.Number
}

// Recorder implements documents.Document.
func (o *SalesOrder) Recorder() ledger.Recorder {
	return ledger.Recorder{Type: RecorderType, ID: o.ID, Number: o.Number}
}

// Entries implements documents.Document: the stock issue unless cancelled,
// one receivable and one sales-side cash row for the payment method.
func (o *SalesOrder) Entries() *ledger.EntrySet {
	set := &ledger.EntrySet{
		Receivable: &ledger.ReceivableEntry{
			InvoiceNumber: o.Number,
			CustomerID:    o.CustomerID,
			CustomerName:  o.CustomerName,
			Amount:        o.Total,
			Paid:          o.PaymentAmount,
			DueDate:       o.DueDate,
		},
		Cash: []ledger.CashEntry{{
			Side:          ledger.SideSales,
			Method:        o.PaymentType.Method(),
			Reference:     o.Number,
			TransactionID: o.TransactionID(),
			PartyName:     o.CustomerName,
			TotalAmount:   o.Total,
			AmountPaid:    o.PaymentAmount,
			AccountNumber: o.AccountNumber,
			Date:          o.Date,
		}},
	}
	if o.Status != StatusCancelled {
		set.Stock = []ledger.StockEntry{{ProductID: o.ProductID, Quantity: -o.Quantity}}
	}
	return set
}
