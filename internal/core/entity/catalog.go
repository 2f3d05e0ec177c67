package entity

import (
	"context"
	"strings"

	"bizbook/internal/core/apperror"
)

// Catalog is reference data with a business code: customers (CUS0001),
// suppliers (SUP0001), warehouses and products (the externally supplied
// productId).
type Catalog struct {
	Record

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a catalog row with a generated id.
func NewCatalog(code, name string) Catalog {
	return Catalog{Record: NewRecord(), Code: code, Name: name}
}

// Validate checks the name only; generated codes are assigned on create.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

func (c *Catalog) GetCode() string { return c.Code }

// SetCode is called by the numbering step of CatalogService.Create.
func (c *Catalog) SetCode(code string) { c.Code = code }
