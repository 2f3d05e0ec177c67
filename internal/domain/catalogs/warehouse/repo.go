package warehouse

import (
	"context"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// GetForUpdate retrieves warehouse with row lock (for transactional updates).
	GetForUpdate(ctx context.Context, id id.ID) (*Warehouse, error)
}
