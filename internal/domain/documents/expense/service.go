package expense

import (
	"context"
	"fmt"

	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/documents"
	"bizbook/pkg/logger"
)

// Repository persists expenses.
type Repository interface {
	documents.Repository[*Expense]
}

// Approver decides whether a new expense is approved without review.
type Approver interface {
	Approve(ctx context.Context, e *Expense) (bool, error)
}

// Service provides business operations for expenses.
type Service struct {
	*documents.Service[*Expense]
	approver Approver
}

// NewService creates an expense service. approver may be nil, in which case
// expenses without a status start Pending.
func NewService(
	repo Repository,
	txManager tx.Manager,
	gen numerator.Generator,
	ledger documents.Syncer,
	approver Approver,
) *Service {
	return &Service{
		Service: documents.NewService(documents.Config[*Expense]{
			Repo:       repo,
			TxManager:  txManager,
			Numerator:  gen,
			Numbering:  numerator.ExpenseConfig,
			Ledger:     ledger,
			EntityName: "expense",
		}),
		approver: approver,
	}
}

// Create stores the expense. Without an explicit status the approval rule
// sets Approved or Pending.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = StatusPending
		if s.approver != nil {
			ok, err := s.approver.Approve(ctx, e)
			if err != nil {
				return fmt.Errorf("evaluate approval rule: %w", err)
			}
			if ok {
				e.Status = StatusApproved
			}
			logger.Debug(ctx, "expense approval rule evaluated", "approved", ok, "amount", e.Amount)
		}
	}
	return s.Service.Create(ctx, e)
}

// Update rewrites the expense. An empty status keeps Pending.
func (s *Service) Update(ctx context.Context, e *Expense) error {
	if e.Status == "" {
		e.Status = StatusPending
	}
	return s.Service.Update(ctx, e)
}
