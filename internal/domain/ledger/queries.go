package ledger

import (
	"context"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
)

// ListPayables returns supplier payables.
func (s *Service) ListPayables(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payable], error) {
	return s.stores.Payables.ListPayables(ctx, filter)
}

// GetPayable returns one payable.
func (s *Service) GetPayable(ctx context.Context, payableID id.ID) (*Payable, error) {
	return s.stores.Payables.GetPayable(ctx, payableID)
}

// GetPayableBySupplier returns the supplier's payable.
func (s *Service) GetPayableBySupplier(ctx context.Context, supplierID id.ID) (*Payable, error) {
	return s.stores.Payables.GetPayableBySupplier(ctx, supplierID)
}

// ListReceivables returns receivables with Overdue derived against the current time,
// so reads are correct between two RefreshOverdue runs.
func (s *Service) ListReceivables(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Receivable], error) {
	res, err := s.stores.Receivables.ListReceivables(ctx, filter)
	if err != nil {
		return res, err
	}
	now := s.now()
	for _, r := range res.Items {
		r.Recalculate(now)
	}
	return res, nil
}

// GetReceivable returns one receivable with its current status.
func (s *Service) GetReceivable(ctx context.Context, receivableID id.ID) (*Receivable, error) {
	r, err := s.stores.Receivables.GetReceivable(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	r.Recalculate(s.now())
	return r, nil
}

// ListCash returns the rows of one of the six cash ledgers.
func (s *Service) ListCash(ctx context.Context, side Side, method Method, filter domain.ListFilter) (domain.ListResult[*CashRecord], error) {
	if err := validLedger(side, method); err != nil {
		return domain.ListResult[*CashRecord]{}, err
	}
	return s.stores.Cash.ListCash(ctx, side, method, filter)
}

// GetCash returns one cash ledger row.
func (s *Service) GetCash(ctx context.Context, side Side, method Method, cashID id.ID) (*CashRecord, error) {
	if err := validLedger(side, method); err != nil {
		return nil, err
	}
	return s.stores.Cash.GetCash(ctx, side, method, cashID)
}

// ListMovements returns the stock register of a product.
func (s *Service) ListMovements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[entity.StockMovement], error) {
	return s.stores.Stock.ListMovements(ctx, productID, filter)
}

func validLedger(side Side, method Method) error {
	switch side {
	case SidePurchase, SideSales:
	default:
		return apperror.NewValidation("unknown cash ledger side").WithDetail("side", side)
	}
	switch method {
	case MethodHand, MethodBank, MethodCheque:
	default:
		return apperror.NewValidation("unknown cash ledger method").WithDetail("method", method)
	}
	return nil
}
