// Package rules evaluates configurable business rules written in CEL.
package rules

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain/documents/expense"
)

// DefaultExpenseRule approves small expenses without review.
const DefaultExpenseRule = "amount <= 1000.0"

// ExpenseApprover decides expense auto-approval with a compiled CEL program.
// The expression sees amount (double), category and paymentType (strings).
type ExpenseApprover struct {
	expr    string
	program cel.Program
}

// NewExpenseApprover compiles expr. An empty expr uses DefaultExpenseRule.
func NewExpenseApprover(expr string) (*ExpenseApprover, error) {
	if expr == "" {
		expr = DefaultExpenseRule
	}

	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("category", cel.StringType),
		cel.Variable("paymentType", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile approval rule %q: %w", expr, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("approval rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build approval program: %w", err)
	}
	return &ExpenseApprover{expr: expr, program: program}, nil
}

// Expr returns the source of the rule.
func (a *ExpenseApprover) Expr() string { return a.expr }

// Approve implements expense.Approver.
func (a *ExpenseApprover) Approve(ctx context.Context, e *expense.Expense) (bool, error) {
	out, _, err := a.program.ContextEval(ctx, map[string]any{
		"amount":      e.Amount.InexactFloat64(),
		"category":    e.Category,
		"paymentType": string(e.PaymentType),
	})
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("evaluate approval rule: %w", err))
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, apperror.NewInternal(fmt.Errorf("approval rule returned %T", out.Value()))
	}
	return ok, nil
}

var _ expense.Approver = (*ExpenseApprover)(nil)
