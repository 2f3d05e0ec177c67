// Package returns provides the purchase and sales return documents. Both
// kinds share one model and differ in numbering and stock direction.
package returns

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/ledger"
)

// Kind selects purchase or sales returns.
type Kind string

const (
	KindPurchase Kind = "purchase_return"
	KindSales    Kind = "sales_return"
)

// Status of a return.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
	StatusPaid      Status = "Paid"
)

var statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusPaid}

// ParseStatus validates s; empty means Pending.
func ParseStatus(s string) (Status, error) {
	v := Status(strings.TrimSpace(s))
	if v == "" {
		return StatusPending, nil
	}
	for _, st := range statuses {
		if st == v {
			return v, nil
		}
	}
	return "", apperror.NewValidation("invalid return status").
		WithDetail("field", "status").
		WithDetail("allowed", statuses)
}

// Settled reports whether the return is finished and can no longer be deleted.
func (s Status) Settled() bool {
	return s == StatusCompleted || s == StatusPaid
}

// Return takes goods back against an order. Number is the returnId.
// Party and product fields are copied from the order.
type Return struct {
	entity.Document

	Kind Kind `db:"-" json:"-"`

	OrderID     id.ID  `db:"order_id" json:"orderId"`
	OrderNumber string `db:"order_number" json:"orderNumber"`
	PartyID     *id.ID `db:"party_id" json:"partyId,omitempty"`
	PartyName   string `db:"party_name" json:"partyName"`
	ProductID   id.ID  `db:"product_id" json:"productId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`

	Quantity int64           `db:"quantity" json:"quantity"`
	Total    decimal.Decimal `db:"total" json:"total"`
	Reason   string          `db:"reason" json:"reason"`
	Status   Status          `db:"status" json:"status"`
}

// NewReturn creates a pending return of the given kind dated now.
func NewReturn(kind Kind) *Return {
	return &Return{
		Document: entity.NewDocument(),
		Kind:     kind,
		Status:   StatusPending,
	}
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(r.OrderNumber) == "" {
		return apperror.NewValidation("orderNumber is required").WithDetail("field", "orderNumber")
	}
	if r.Quantity <= 0 {
		return apperror.NewValidation("quantity must be greater than zero").WithDetail("field", "quantity")
	}
	if r.Total.IsNegative() {
		return apperror.NewValidation("total must not be negative").WithDetail("field", "total")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return err
	}
	return nil
}

// Recorder implements documents.Document.
func (r *Return) Recorder() ledger.Recorder {
	return ledger.Recorder{Type: string(r.Kind), ID: r.ID, Number: r.Number}
}

// Entries implements documents.Document. Sales returns put goods back into
// stock; purchase returns send them to the supplier.
func (r *Return) Entries() *ledger.EntrySet {
	qty := r.Quantity
	if r.Kind == KindPurchase {
		qty = -qty
	}
	return &ledger.EntrySet{
		Stock: []ledger.StockEntry{{ProductID: r.ProductID, Quantity: qty}},
	}
}
