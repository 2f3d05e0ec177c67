package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

var movementColumns = []string{
	"line_id", "recorder_type", "recorder_id", "recorder_number",
	"product_id", "quantity", "balance_after", "created_at", "created_by",
}

var movementList = listSpec{
	table:        movementTable,
	columns:      movementColumns,
	dateColumn:   "created_at",
	searchCols:   []string{"recorder_number"},
	sortable:     map[string]string{"createdAt": "created_at", "quantity": "quantity"},
	defaultOrder: "created_at DESC",
}

// StockRepo implements ledger.StockRepository on cat_products and the
// stock movement register.
type StockRepo struct {
	base
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{base: newBase(txManager)}
}

// applyDeltaQuery is a conditional update: no row comes back when the
// product is missing or the delta would take stock below zero.
func (r *StockRepo) applyDeltaQuery(productID id.ID, delta int64) squirrel.UpdateBuilder {
	return r.builder.Update(productTable).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.Expr("stock + ? >= 0", delta)).
		Suffix("RETURNING id, brand, category, warehouse_id, stock")
}

// ApplyStockDelta implements ledger.StockRepository.
func (r *StockRepo) ApplyStockDelta(ctx context.Context, productID id.ID, delta int64) (ledger.StockChange, error) {
	var change ledger.StockChange

	sql, args, err := r.applyDeltaQuery(productID, delta).ToSql()
	if err != nil {
		return change, fmt.Errorf("build stock update: %w", err)
	}

	err = pgxscan.Get(ctx, r.querier(ctx), &change, sql, args...)
	if err == nil {
		return change, nil
	}
	if !pgxscan.NotFound(err) {
		return change, postgres.MapError(err, "product")
	}

	var available int64
	err = r.querier(ctx).QueryRow(ctx, `SELECT stock FROM cat_products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if pgxscan.NotFound(err) {
			return change, apperror.NewNotFound("product", productID)
		}
		return change, fmt.Errorf("read product stock: %w", err)
	}
	return change, apperror.NewInsufficientStock(productID.String(), -delta, available)
}

// RecordMovement implements ledger.StockRepository.
func (r *StockRepo) RecordMovement(ctx context.Context, m entity.StockMovement) error {
	if id.IsNil(m.LineID) {
		return errors.New("movement line id is required")
	}

	sql, args, err := r.builder.Insert(movementTable).
		Columns(movementColumns...).
		Values(m.LineID, m.RecorderType, m.RecorderID, m.RecorderNumber,
			m.ProductID, m.Quantity, m.BalanceAfter, m.CreatedAt, m.CreatedBy).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListMovements implements ledger.StockRepository.
func (r *StockRepo) ListMovements(ctx context.Context, productID id.ID, f domain.ListFilter) (domain.ListResult[entity.StockMovement], error) {
	q := r.builder.Select(movementColumns...).
		From(movementTable).
		Where(squirrel.Eq{"product_id": productID})
	return list[entity.StockMovement](ctx, r.base, movementList, q, f)
}
