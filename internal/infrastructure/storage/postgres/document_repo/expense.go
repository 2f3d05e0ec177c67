package document_repo

import (
	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/infrastructure/storage/postgres"
)

// ExpenseRepo stores expenses.
type ExpenseRepo struct {
	*BaseDocumentRepo[*expense.Expense]
}

// NewExpenseRepo creates an expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_expenses", "expense",
			func() *expense.Expense { return &expense.Expense{} },
			"category", "description", "status"),
	}
}

var _ expense.Repository = (*ExpenseRepo)(nil)
