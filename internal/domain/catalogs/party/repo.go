package party

import (
	"context"

	"bizbook/internal/domain"
)

// Repository defines the interface for customer or supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Party]

	// FindByEmail retrieves a party by its unique email.
	FindByEmail(ctx context.Context, email string) (*Party, error)
}
