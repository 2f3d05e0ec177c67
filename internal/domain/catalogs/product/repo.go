package product

import (
	"context"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate retrieves product with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)
}

// WarehouseChecker verifies warehouse references.
type WarehouseChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
