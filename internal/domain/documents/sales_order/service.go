package sales_order

import (
	"context"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/documents"
)

// Repository persists sales orders.
type Repository interface {
	documents.Repository[*SalesOrder]
}

// Service provides business operations for sales orders.
type Service struct {
	*documents.Service[*SalesOrder]
	repo    Repository
	refs    documents.References
	returns documents.ReturnedQuantity
}

// NewService creates a sales order service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	gen numerator.Generator,
	ledger documents.Syncer,
	refs documents.References,
	returns documents.ReturnedQuantity,
) *Service {
	s := &Service{
		Service: documents.NewService(documents.Config[*SalesOrder]{
			Repo:       repo,
			TxManager:  txManager,
			Numerator:  gen,
			Numbering:  numerator.SalesOrderConfig,
			Ledger:     ledger,
			EntityName: "sales order",
		}),
		repo:    repo,
		refs:    refs,
		returns: returns,
	}
	s.Hooks().OnBeforeCreate(s.beforeCreate)
	s.Hooks().OnBeforeUpdate(s.beforeUpdate)
	s.Hooks().OnBeforeDelete(s.beforeDelete)
	return s
}

// Create stores the order, issues its stock and opens its receivable and
// cash row. Nothing is written when the order fails validation.
func (s *Service) Create(ctx context.Context, o *SalesOrder) error {
	o.Recalculate()
	return s.Service.Create(ctx, o)
}

// Update rewrites the order and moves stock, receivable and cash by the
// difference to the stored order.
func (s *Service) Update(ctx context.Context, o *SalesOrder) error {
	o.Recalculate()
	return s.Service.Update(ctx, o)
}

func (s *Service) resolve(ctx context.Context, o *SalesOrder) (int64, error) {
	customer, err := s.refs.Customer(ctx, *o.CustomerID)
	if err != nil {
		return 0, err
	}
	o.CustomerName = customer.Name

	p, err := s.refs.Product(ctx, o.ProductID)
	if err != nil {
		return 0, err
	}
	if err := s.refs.RequireWarehouse(ctx, o.WarehouseID); err != nil {
		return 0, err
	}
	return p.Stock, nil
}

func (s *Service) beforeCreate(ctx context.Context, o *SalesOrder) error {
	stock, err := s.resolve(ctx, o)
	if err != nil {
		return err
	}
	if o.Status != StatusCancelled && o.Quantity > stock {
		return apperror.NewInsufficientStock(o.ProductID.String(), o.Quantity, stock)
	}
	return nil
}

// beforeUpdate leaves the stock check to the ledger, which knows the
// quantity the stored order already holds. The stored row is locked by the
// caller.
func (s *Service) beforeUpdate(ctx context.Context, o *SalesOrder) error {
	if _, err := s.resolve(ctx, o); err != nil {
		return err
	}
	stored, err := s.repo.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	return documents.GuardReturns(ctx, s.returns, documents.OrderChange{
		OrderID:        o.ID,
		Number:         stored.Number,
		Quantity:       o.Quantity,
		Cancelled:      o.Status == StatusCancelled && stored.Status != StatusCancelled,
		ProductChanged: o.ProductID != stored.ProductID,
	})
}

func (s *Service) beforeDelete(ctx context.Context, o *SalesOrder) error {
	returned, err := s.returns.SumReturnedQuantity(ctx, o.ID, id.Nil())
	if err != nil {
		return err
	}
	if returned > 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"sales order has returns; delete the returns first").
			WithDetail("orderNumber", o.Number)
	}
	return nil
}
