package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayableStatus is the derived state of an account payable.
type PayableStatus string

const (
	PayableUnpaid        PayableStatus = "Unpaid"
	PayablePartiallyPaid PayableStatus = "Partially Paid"
	PayablePaid          PayableStatus = "Paid"
)

// ReceivableStatus is the derived state of an account receivable.
type ReceivableStatus string

const (
	ReceivablePending       ReceivableStatus = "Pending"
	ReceivablePartiallyPaid ReceivableStatus = "Partially Paid"
	ReceivableReceived      ReceivableStatus = "Received"
	ReceivableOverdue       ReceivableStatus = "Overdue"
)

// CashStatus is the derived state of a cash ledger row.
type CashStatus string

const (
	CashUnpaid        CashStatus = "Unpaid"
	CashPartiallyPaid CashStatus = "Partially Paid"
	CashPaid          CashStatus = "Paid"
)

// Balance is total minus paid. Every ledger record stores exactly this value.
func Balance(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

// PayableStatusFor derives the payable status from its balance. Nothing owed
// is Paid, including a zero total.
func PayableStatusFor(total, paid decimal.Decimal) PayableStatus {
	switch {
	case !Balance(total, paid).IsPositive():
		return PayablePaid
	case !paid.IsPositive():
		return PayableUnpaid
	default:
		return PayablePartiallyPaid
	}
}

// ReceivableStatusFor derives the receivable status. Unpaid receivables whose
// due date has passed are Overdue.
func ReceivableStatusFor(amount, paid decimal.Decimal, due, now time.Time) ReceivableStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return ReceivableReceived
	case paid.IsPositive():
		return ReceivablePartiallyPaid
	case !due.IsZero() && due.Before(now):
		return ReceivableOverdue
	default:
		return ReceivablePending
	}
}

// CashStatusFor derives the status of a cash ledger row.
func CashStatusFor(total, paid decimal.Decimal) CashStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return CashPaid
	case paid.IsPositive():
		return CashPartiallyPaid
	default:
		return CashUnpaid
	}
}
