package product

import (
	"context"
	"strings"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
)

// Counters applies a product write to the brand, category and warehouse totals.
type Counters interface {
	ApplyProductChange(ctx context.Context, before, after *ledger.ProductSnapshot) error
}

// Service provides business logic for Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo       Repository
	warehouses WarehouseChecker
	counters   Counters
}

// NewService creates a new Product service. Counter updates run in the
// product write transaction through the catalog hooks.
func NewService(repo Repository, txManager tx.Manager, warehouses WarehouseChecker, counters Counters) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		warehouses:     warehouses,
		counters:       counters,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)
	base.Hooks().OnAfterCreate(func(ctx context.Context, p *Product) error {
		return svc.counters.ApplyProductChange(ctx, nil, p.Snapshot())
	})
	base.Hooks().OnAfterUpdate(func(ctx context.Context, before, after *Product) error {
		return svc.counters.ApplyProductChange(ctx, before.Snapshot(), after.Snapshot())
	})
	base.Hooks().OnAfterDelete(func(ctx context.Context, p *Product) error {
		return svc.counters.ApplyProductChange(ctx, p.Snapshot(), nil)
	})

	return svc
}

// prepare defaults the barcode and checks the warehouse reference.
func (s *Service) prepare(ctx context.Context, p *Product) error {
	p.Brand = strings.TrimSpace(p.Brand)
	p.Category = strings.TrimSpace(p.Category)
	if strings.TrimSpace(p.Barcode) == "" {
		p.Barcode = p.Code
	}

	ok, err := s.warehouses.Exists(ctx, p.WarehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewValidation("warehouse does not exist").
			WithDetail("field", "warehouseId").
			WithDetail("value", p.WarehouseID.String())
	}
	return nil
}
