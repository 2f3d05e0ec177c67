// Package ledger_repo provides PostgreSQL implementations of the ledger stores.
package ledger_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

const (
	productTable     = "cat_products"
	movementTable    = "reg_stock_movements"
	payableTable     = "led_payables"
	receivableTable  = "led_receivables"
	cashTable        = "led_cash"
	brandTable       = "cat_brands"
	categoryTable    = "cat_categories"
	warehouseTable   = "cat_warehouses"
	defaultListLimit = 50
)

type base struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

func newBase(txManager *postgres.TxManager) base {
	return base{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (b base) querier(ctx context.Context) postgres.Querier {
	return b.txManager.GetQuerier(ctx)
}

// NewStores builds every ledger store on txManager.
func NewStores(txManager *postgres.TxManager) ledger.Stores {
	return ledger.Stores{
		Stock:       NewStockRepo(txManager),
		Payables:    NewPayableRepo(txManager),
		Receivables: NewReceivableRepo(txManager),
		Cash:        NewCashRepo(txManager),
		Counters:    NewCounterRepo(txManager),
	}
}

// listSpec describes a paginated ledger listing.
type listSpec struct {
	table      string
	columns    []string
	dateColumn string
	searchCols []string
	// sortable maps API field names to columns
	sortable     map[string]string
	defaultOrder string
}

// listQuery builds the page query and its count query.
func (b base) listQuery(spec listSpec, q squirrel.SelectBuilder, f domain.ListFilter) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	if f.Search != "" && len(spec.searchCols) > 0 {
		pattern := "%" + f.Search + "%"
		or := make(squirrel.Or, 0, len(spec.searchCols))
		for _, col := range spec.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if spec.dateColumn != "" {
		if f.DateFrom != nil {
			q = q.Where(squirrel.GtOrEq{spec.dateColumn: *f.DateFrom})
		}
		if before := f.DateBefore(); before != nil {
			q = q.Where(squirrel.Lt{spec.dateColumn: *before})
		}
	}

	countQ := b.builder.Select("COUNT(*)").FromSelect(q, "sub")

	order, err := orderBy(spec, f.OrderBy)
	if err != nil {
		return q, countQ, err
	}
	q = q.OrderBy(order)

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q = q.Limit(uint64(limit))
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q, countQ, nil
}

func orderBy(spec listSpec, raw string) (string, error) {
	field := strings.TrimSpace(raw)
	if field == "" || field == "name" {
		return spec.defaultOrder, nil
	}
	direction := "ASC"
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = field[1:]
	}
	col, ok := spec.sortable[strings.TrimPrefix(field, "+")]
	if !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", raw)
	}
	return col + " " + direction, nil
}

// list runs a listing built by listQuery.
func list[T any](ctx context.Context, b base, spec listSpec, q squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Items: []T{}, Limit: f.Limit, Offset: f.Offset}
	if result.Limit <= 0 {
		result.Limit = defaultListLimit
	}

	pageQ, countQ, err := b.listQuery(spec, q, f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := b.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", spec.table, err)
	}
	if result.TotalCount == 0 {
		return result, nil
	}

	sql, args, err := pageQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build list query: %w", err)
	}
	if err := pgxscan.Select(ctx, b.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", spec.table, err)
	}
	return result, nil
}

// getOne scans a single row and maps a miss to NOT_FOUND.
func getOne[T any](ctx context.Context, b base, q squirrel.SelectBuilder, entity string, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out T
	if err := pgxscan.Get(ctx, b.querier(ctx), &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return &out, nil
}
