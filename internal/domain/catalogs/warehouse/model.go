// Package warehouse provides the Warehouse catalog.
// Warehouses hold products; their totals are maintained by the ledger.
package warehouse

import (
	"context"
	"strings"
	"time"

	"bizbook/internal/core/entity"
)

// Warehouse represents a storage location for products.
type Warehouse struct {
	entity.Catalog

	// Location is a free-form address or description
	Location string `db:"location" json:"location"`

	// TotalProducts and TotalStock are ledger counters (read-only over the API)
	TotalProducts int64 `db:"total_products" json:"totalProducts"`
	TotalStock    int64 `db:"total_stock" json:"totalStock"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewWarehouse creates a new Warehouse. The WH code is assigned on create.
func NewWarehouse(name, location string) *Warehouse {
	now := time.Now().UTC()
	return &Warehouse{
		Catalog:   entity.NewCatalog("", strings.TrimSpace(name)),
		Location:  strings.TrimSpace(location),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}
