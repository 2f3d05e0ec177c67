package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bizbook/internal/domain/catalogs/productgroup"
	"bizbook/internal/infrastructure/storage/postgres"
)

// GroupRepo implements productgroup.Repository for brands or categories.
type GroupRepo struct {
	*BaseCatalogRepo[*productgroup.Group]
	// productColumn is the cat_products column holding the group name
	productColumn string
}

// NewBrandRepo creates the brand repository.
func NewBrandRepo(txManager *postgres.TxManager) *GroupRepo {
	return newGroupRepo(txManager, "cat_brands", productgroup.KindBrand, "brand")
}

// NewCategoryRepo creates the category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *GroupRepo {
	return newGroupRepo(txManager, "cat_categories", productgroup.KindCategory, "category")
}

func newGroupRepo(txManager *postgres.TxManager, table string, kind productgroup.Kind, productColumn string) *GroupRepo {
	base := NewBaseCatalogRepo[*productgroup.Group](
		txManager,
		table,
		string(kind),
		postgres.ExtractDBColumns[productgroup.Group](),
		func() *productgroup.Group { return &productgroup.Group{} },
	).
		WithCodeColumn("name").
		WithSearchColumns("name", "description").
		WithManagedColumns("total_products", "total_stock")

	return &GroupRepo{BaseCatalogRepo: base, productColumn: productColumn}
}

// CountProducts returns the number of products referencing name.
func (r *GroupRepo) CountProducts(ctx context.Context, name string) (int64, error) {
	sql, args, err := r.countProductsQuery(name).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int64
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products of %s: %w", r.entityName, err)
	}
	return n, nil
}

func (r *GroupRepo) countProductsQuery(name string) squirrel.SelectBuilder {
	return r.Builder().
		Select("COUNT(*)").
		From(productTable).
		Where(squirrel.Eq{r.productColumn: name})
}
