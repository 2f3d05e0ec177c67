// Package product provides the Product catalog.
// Product stock is changed by documents through the ledger; the catalog
// only sets it on create and on explicit edits.
package product

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/core/types"
	"bizbook/internal/domain/ledger"
)

// Product is a stock-keeping item. Code holds the externally supplied productId.
type Product struct {
	entity.Catalog

	Barcode     string          `db:"barcode" json:"barcode"`
	Brand       string          `db:"brand" json:"brand"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int64           `db:"stock" json:"stock"`
	WarehouseID id.ID           `db:"warehouse_id" json:"warehouseId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with a generated id.
func NewProduct(productID, name string) *Product {
	now := time.Now().UTC()
	return &Product{
		Catalog:   entity.NewCatalog(strings.TrimSpace(productID), strings.TrimSpace(name)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("productId is required").
			WithDetail("field", "productId")
	}
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !p.Price.IsPositive() {
		return apperror.NewValidation("price must be greater than zero").
			WithDetail("field", "price")
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock must not be negative").
			WithDetail("field", "stock")
	}
	if id.IsNil(p.WarehouseID) {
		return apperror.NewValidation("warehouseId is required").
			WithDetail("field", "warehouseId")
	}
	return nil
}

// Value returns stock × price.
func (p *Product) Value() decimal.Decimal {
	return types.Multiply(p.Price, p.Stock)
}

// Snapshot returns the fields the ledger counters depend on.
func (p *Product) Snapshot() *ledger.ProductSnapshot {
	if p == nil {
		return nil
	}
	return &ledger.ProductSnapshot{
		ID:          p.ID,
		Brand:       p.Brand,
		Category:    p.Category,
		WarehouseID: p.WarehouseID,
		Stock:       p.Stock,
	}
}
