package purchase

import (
	"context"

	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/documents"
)

// Repository persists purchases together with their payments.
type Repository interface {
	documents.Repository[*Purchase]
}

// Service provides business operations for purchases.
type Service struct {
	*documents.Service[*Purchase]
	repo    Repository
	refs    documents.References
	returns documents.ReturnedQuantity
}

// NewService creates a purchase service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	gen numerator.Generator,
	ledger documents.Syncer,
	refs documents.References,
	returns documents.ReturnedQuantity,
) *Service {
	s := &Service{
		Service: documents.NewService(documents.Config[*Purchase]{
			Repo:       repo,
			TxManager:  txManager,
			Numerator:  gen,
			Numbering:  numerator.PurchaseConfig,
			Ledger:     ledger,
			EntityName: "purchase",
		}),
		repo:    repo,
		refs:    refs,
		returns: returns,
	}
	s.Hooks().OnBeforeCreate(s.resolve)
	s.Hooks().OnBeforeUpdate(s.beforeUpdate)
	return s
}

// Create derives amounts, then stores the purchase and applies its payable,
// stock and cash effects.
func (s *Service) Create(ctx context.Context, p *Purchase) error {
	p.Recalculate()
	return s.Service.Create(ctx, p)
}

// Update derives amounts, then rewrites the purchase and its ledger effects.
func (s *Service) Update(ctx context.Context, p *Purchase) error {
	p.Recalculate()
	return s.Service.Update(ctx, p)
}

// resolve checks references and denormalizes the supplier name.
func (s *Service) resolve(ctx context.Context, p *Purchase) error {
	supplier, err := s.refs.Supplier(ctx, *p.SupplierID)
	if err != nil {
		return err
	}
	p.SupplierName = supplier.Name

	if _, err := s.refs.Product(ctx, p.ProductID); err != nil {
		return err
	}
	return s.refs.RequireWarehouse(ctx, p.WarehouseID)
}

// beforeUpdate keeps purchase returns backed by received stock.
func (s *Service) beforeUpdate(ctx context.Context, p *Purchase) error {
	if err := s.resolve(ctx, p); err != nil {
		return err
	}
	stored, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	return documents.GuardReturns(ctx, s.returns, documents.OrderChange{
		OrderID:        p.ID,
		Number:         stored.Number,
		Quantity:       p.Quantity,
		Cancelled:      p.Status == StatusCancelled && stored.Status != StatusCancelled,
		ProductChanged: p.ProductID != stored.ProductID,
	})
}
