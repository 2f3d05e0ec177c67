// Package productgroup provides the Brand and Category catalogs. Products
// reference both by name; a name that does not exist yet is created by the
// ledger with AutoCreated set.
package productgroup

import (
	"context"
	"strings"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
)

// Kind tells brands from categories.
type Kind string

const (
	KindBrand    Kind = "brand"
	KindCategory Kind = "category"
)

// Group is a brand or a category.
type Group struct {
	entity.Record

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	// Counters maintained by the ledger
	TotalProducts int64 `db:"total_products" json:"totalProducts"`
	TotalStock    int64 `db:"total_stock" json:"totalStock"`
	AutoCreated   bool  `db:"auto_created" json:"autoCreated"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a manually managed group.
func New(name, description string) *Group {
	now := time.Now().UTC()
	return &Group{
		Record:      entity.NewRecord(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate implements entity.Validatable interface.
func (g *Group) Validate(ctx context.Context) error {
	if strings.TrimSpace(g.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
