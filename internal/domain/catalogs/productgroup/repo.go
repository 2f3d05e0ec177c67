package productgroup

import (
	"context"

	"bizbook/internal/domain"
)

// Repository defines the interface for brand or category persistence.
type Repository interface {
	domain.CatalogRepository[*Group]

	// CountProducts returns the number of products referencing name.
	CountProducts(ctx context.Context, name string) (int64, error)
}
