package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

// CounterRepo implements ledger.CounterRepository on cat_brands,
// cat_categories and cat_warehouses.
type CounterRepo struct {
	base
}

// NewCounterRepo creates a new counter repository.
func NewCounterRepo(txManager *postgres.TxManager) *CounterRepo {
	return &CounterRepo{base: newBase(txManager)}
}

func groupTable(kind ledger.CounterKind) (string, error) {
	switch kind {
	case ledger.CounterBrand:
		return brandTable, nil
	case ledger.CounterCategory:
		return categoryTable, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("%s is not a product group", kind))
}

// adjustGroupSQL upserts a brand or category by name. Rows created here are
// auto_created; an existing row keeps its flag.
func adjustGroupSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %[1]s (id, name, total_products, total_stock, auto_created)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (name) DO UPDATE SET
			total_products = %[1]s.total_products + EXCLUDED.total_products,
			total_stock = %[1]s.total_stock + EXCLUDED.total_stock,
			updated_at = NOW()
		RETURNING id, total_products, total_stock, auto_created
	`, table)
}

// AdjustCounter implements ledger.CounterRepository.
func (r *CounterRepo) AdjustCounter(ctx context.Context, d ledger.CounterDelta) (ledger.CounterState, error) {
	var state ledger.CounterState

	if d.Kind == ledger.CounterWarehouse {
		sql, args, err := r.adjustWarehouseQuery(d).ToSql()
		if err != nil {
			return state, fmt.Errorf("build update: %w", err)
		}
		err = r.querier(ctx).QueryRow(ctx, sql, args...).
			Scan(&state.ID, &state.TotalProducts, &state.TotalStock)
		if pgxscan.NotFound(err) {
			return state, apperror.NewNotFound("warehouse", d.WarehouseID)
		}
		if err != nil {
			return state, fmt.Errorf("adjust warehouse counter: %w", err)
		}
		return state, nil
	}

	table, err := groupTable(d.Kind)
	if err != nil {
		return state, err
	}
	err = r.querier(ctx).QueryRow(ctx, adjustGroupSQL(table), id.New(), d.Name, d.Products, d.Stock).
		Scan(&state.ID, &state.TotalProducts, &state.TotalStock, &state.AutoCreated)
	if err != nil {
		return state, fmt.Errorf("adjust %s counter: %w", d.Kind, err)
	}
	return state, nil
}

func (r *CounterRepo) adjustWarehouseQuery(d ledger.CounterDelta) squirrel.UpdateBuilder {
	return r.builder.Update(warehouseTable).
		Set("total_products", squirrel.Expr("total_products + ?", d.Products)).
		Set("total_stock", squirrel.Expr("total_stock + ?", d.Stock)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": d.WarehouseID}).
		Suffix("RETURNING id, total_products, total_stock")
}

// DeleteCounter implements ledger.CounterRepository. Only auto-created rows
// are removed; a brand created by a user stays at zero.
func (r *CounterRepo) DeleteCounter(ctx context.Context, kind ledger.CounterKind, counterID id.ID) error {
	table, err := groupTable(kind)
	if err != nil {
		return err
	}
	sql, args, err := r.builder.Delete(table).
		Where(squirrel.Eq{"id": counterID, "auto_created": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

var recountStatements = []string{
	`INSERT INTO cat_brands (id, name, auto_created)
		SELECT gen_random_uuid(), brand, true FROM cat_products
		WHERE brand <> '' GROUP BY brand
		ON CONFLICT (name) DO NOTHING`,
	`INSERT INTO cat_categories (id, name, auto_created)
		SELECT gen_random_uuid(), category, true FROM cat_products
		WHERE category <> '' GROUP BY category
		ON CONFLICT (name) DO NOTHING`,
	`UPDATE cat_brands b SET
		total_products = COALESCE(s.products, 0),
		total_stock = COALESCE(s.stock, 0),
		updated_at = NOW()
		FROM cat_brands b2
		LEFT JOIN (SELECT brand, COUNT(*) AS products, SUM(stock) AS stock
			FROM cat_products GROUP BY brand) s ON s.brand = b2.name
		WHERE b.id = b2.id`,
	`UPDATE cat_categories c SET
		total_products = COALESCE(s.products, 0),
		total_stock = COALESCE(s.stock, 0),
		updated_at = NOW()
		FROM cat_categories c2
		LEFT JOIN (SELECT category, COUNT(*) AS products, SUM(stock) AS stock
			FROM cat_products GROUP BY category) s ON s.category = c2.name
		WHERE c.id = c2.id`,
	`UPDATE cat_warehouses w SET
		total_products = COALESCE(s.products, 0),
		total_stock = COALESCE(s.stock, 0),
		updated_at = NOW()
		FROM cat_warehouses w2
		LEFT JOIN (SELECT warehouse_id, COUNT(*) AS products, SUM(stock) AS stock
			FROM cat_products GROUP BY warehouse_id) s ON s.warehouse_id = w2.id
		WHERE w.id = w2.id`,
}

const recountTotalsSQL = `
	SELECT
		(SELECT COUNT(*) FROM cat_brands),
		(SELECT COUNT(*) FROM cat_categories),
		(SELECT COUNT(*) FROM cat_warehouses),
		(SELECT COUNT(*) FROM cat_products),
		(SELECT COALESCE(SUM(stock), 0) FROM cat_products)
`

// RecalculateCounters implements ledger.CounterRepository.
func (r *CounterRepo) RecalculateCounters(ctx context.Context) (ledger.CounterTotals, error) {
	var totals ledger.CounterTotals
	q := r.querier(ctx)

	for _, stmt := range recountStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return totals, fmt.Errorf("recount: %w", err)
		}
	}

	err := q.QueryRow(ctx, recountTotalsSQL).Scan(
		&totals.Brands, &totals.Categories, &totals.Warehouses, &totals.Products, &totals.Stock)
	if err != nil {
		return totals, fmt.Errorf("read recount totals: %w", err)
	}
	return totals, nil
}
