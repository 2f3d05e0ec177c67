package rules

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/ledger"
)

func sample(amount, category string, pt ledger.PaymentType) *expense.Expense {
	return &expense.Expense{
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		PaymentType: pt,
	}
}

func TestExpenseApprover_Default(t *testing.T) {
	a, err := NewExpenseApprover("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExpenseRule, a.Expr())

	ctx := context.Background()
	ok, err := a.Approve(ctx, sample("1000", "Rent", ledger.PaymentCash))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Approve(ctx, sample("1000.01", "Rent", ledger.PaymentCash))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpenseApprover_CustomRule(t *testing.T) {
	a, err := NewExpenseApprover(`category == "Utilities" && paymentType != "Cheque"`)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := a.Approve(ctx, sample("5000", "Utilities", ledger.PaymentCash))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Approve(ctx, sample("5", "Travel", ledger.PaymentCash))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewExpenseApprover_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":        "amount <=",
		"unknown var":   "total < 10.0",
		"non-bool":      "amount * 2.0",
		"type mismatch": `amount == "x"`,
	}
	for name, expr := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewExpenseApprover(expr)
			assert.Error(t, err)
		})
	}
}
