package warehouse

import (
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain"
)

// Service provides business logic for Warehouse catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo Repository
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	numbering := numerator.WarehouseConfig
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  gen,
		Numbering:  &numbering,
		EntityName: "warehouse",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
