package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

var receivableColumns = []string{
	"id", "sales_order_id", "invoice_number", "customer_id", "customer_name",
	"amount", "amount_paid", "balance", "status", "due_date",
	"version", "created_at", "updated_at",
}

var receivableList = listSpec{
	table:      receivableTable,
	columns:    receivableColumns,
	dateColumn: "due_date",
	searchCols: []string{"customer_name", "invoice_number", "status"},
	sortable: map[string]string{
		"dueDate":      "due_date",
		"customerName": "customer_name",
		"balance":      "balance",
		"createdAt":    "created_at",
	},
	defaultOrder: "due_date ASC",
}

// ReceivableRepo implements ledger.ReceivableRepository.
type ReceivableRepo struct {
	base
}

// NewReceivableRepo creates a new receivable repository.
func NewReceivableRepo(txManager *postgres.TxManager) *ReceivableRepo {
	return &ReceivableRepo{base: newBase(txManager)}
}

// CreateReceivable implements ledger.ReceivableRepository.
func (r *ReceivableRepo) CreateReceivable(ctx context.Context, rec *ledger.Receivable) error {
	sql, args, err := r.builder.Insert(receivableTable).
		Columns("id", "sales_order_id", "invoice_number", "customer_id", "customer_name",
			"amount", "amount_paid", "balance", "status", "due_date", "version").
		Values(rec.ID, rec.SalesOrderID, rec.InvoiceNumber, rec.CustomerID, rec.CustomerName,
			rec.Amount, rec.AmountPaid, rec.Balance, rec.Status, rec.DueDate, rec.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "account receivable")
	}
	return nil
}

// LockReceivable implements ledger.ReceivableRepository.
func (r *ReceivableRepo) LockReceivable(ctx context.Context, salesOrderID id.ID) (*ledger.Receivable, error) {
	q := r.builder.Select(receivableColumns...).
		From(receivableTable).
		Where(squirrel.Eq{"sales_order_id": salesOrderID}).
		Suffix("FOR UPDATE")
	return getOne[ledger.Receivable](ctx, r.base, q, "account receivable", salesOrderID)
}

// UpdateReceivable implements ledger.ReceivableRepository.
func (r *ReceivableRepo) UpdateReceivable(ctx context.Context, rec *ledger.Receivable) error {
	sql, args, err := r.builder.Update(receivableTable).
		Set("invoice_number", rec.InvoiceNumber).
		Set("customer_id", rec.CustomerID).
		Set("customer_name", rec.CustomerName).
		Set("amount", rec.Amount).
		Set("amount_paid", rec.AmountPaid).
		Set("balance", rec.Balance).
		Set("status", rec.Status).
		Set("due_date", rec.DueDate).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": rec.ID, "version": rec.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "account receivable")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("account receivable", rec.ID)
	}
	rec.Version++
	return nil
}

// DeleteReceivable implements ledger.ReceivableRepository.
func (r *ReceivableRepo) DeleteReceivable(ctx context.Context, salesOrderID id.ID) (id.ID, error) {
	var receivableID id.ID
	err := r.querier(ctx).QueryRow(ctx,
		`DELETE FROM led_receivables WHERE sales_order_id = $1 RETURNING id`, salesOrderID,
	).Scan(&receivableID)
	if err != nil {
		return id.Nil(), postgres.MapError(err, "account receivable")
	}
	return receivableID, nil
}

// GetReceivable implements ledger.ReceivableRepository.
func (r *ReceivableRepo) GetReceivable(ctx context.Context, receivableID id.ID) (*ledger.Receivable, error) {
	q := r.builder.Select(receivableColumns...).From(receivableTable).Where(squirrel.Eq{"id": receivableID})
	return getOne[ledger.Receivable](ctx, r.base, q, "account receivable", receivableID)
}

// ListReceivables implements ledger.ReceivableRepository.
func (r *ReceivableRepo) ListReceivables(ctx context.Context, f domain.ListFilter) (domain.ListResult[*ledger.Receivable], error) {
	q := r.builder.Select(receivableColumns...).From(receivableTable)
	return list[*ledger.Receivable](ctx, r.base, receivableList, q, f)
}

func (r *ReceivableRepo) markOverdueQuery(now time.Time) squirrel.UpdateBuilder {
	return r.builder.Update(receivableTable).
		Set("status", ledger.ReceivableOverdue).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": ledger.ReceivablePending}).
		Where(squirrel.Lt{"due_date": now})
}

// MarkOverdue implements ledger.ReceivableRepository.
func (r *ReceivableRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := r.markOverdueQuery(now).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}
