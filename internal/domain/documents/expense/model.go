// Package expense provides the Expense document. Expenses have no ledger
// effect; they only feed the profit and loss report.
package expense

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/domain/ledger"
)

// RecorderType names expenses in ledger records.
const RecorderType = "expense"

// Status of an expense.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusPaid     Status = "Paid"
)

// ParseStatus validates s. Empty stays empty: the approval rule decides.
func ParseStatus(s string) (Status, error) {
	switch v := Status(strings.TrimSpace(s)); v {
	case "", StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return v, nil
	}
	return "", apperror.NewValidation("invalid expense status").
		WithDetail("field", "status").
		WithDetail("allowed", []Status{StatusPending, StatusApproved, StatusRejected, StatusPaid})
}

// Expense is a business expense; Number is the expenseNumber (EXP-000001).
type Expense struct {
	entity.Document

	Category    string             `db:"category" json:"category"`
	Amount      decimal.Decimal    `db:"amount" json:"amount"`
	PaymentType ledger.PaymentType `db:"payment_type" json:"paymentType"`
	Description string             `db:"description" json:"description"`
	Status      Status             `db:"status" json:"status"`
}

// NewExpense creates an expense dated now with no status.
func NewExpense() *Expense {
	return &Expense{
		Document:    entity.NewDocument(),
		PaymentType: ledger.PaymentCash,
	}
}

// Validate implements entity.Validatable.
func (e *Expense) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return apperror.NewValidation("category is required").WithDetail("field", "category")
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be greater than zero").WithDetail("field", "amount")
	}
	if _, err := ledger.ParsePaymentType(string(e.PaymentType)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	return nil
}

// Recorder implements documents.Document.
func (e *Expense) Recorder() ledger.Recorder {
	return ledger.Recorder{Type: RecorderType, ID: e.ID, Number: e.Number}
}

// Entries implements documents.Document.
func (e *Expense) Entries() *ledger.EntrySet {
	return nil
}
