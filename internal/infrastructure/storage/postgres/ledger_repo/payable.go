package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

var payableColumns = []string{
	"id", "supplier_id", "supplier_name", "invoice_number",
	"total_amount", "amount_paid", "balance", "status", "purchase_count",
	"version", "created_at", "updated_at",
}

var payableList = listSpec{
	table:      payableTable,
	columns:    payableColumns,
	searchCols: []string{"supplier_name", "invoice_number", "status"},
	sortable: map[string]string{
		"supplierName": "supplier_name",
		"balance":      "balance",
		"totalAmount":  "total_amount",
		"updatedAt":    "updated_at",
	},
	defaultOrder: "supplier_name ASC",
}

// PayableRepo implements ledger.PayableRepository.
type PayableRepo struct {
	base
}

// NewPayableRepo creates a new payable repository.
func NewPayableRepo(txManager *postgres.TxManager) *PayableRepo {
	return &PayableRepo{base: newBase(txManager)}
}

func (r *PayableRepo) insertQuery(p *ledger.Payable, invoice string) squirrel.InsertBuilder {
	return r.builder.Insert(payableTable).
		Columns("id", "supplier_id", "supplier_name", "invoice_number",
			"total_amount", "amount_paid", "balance", "status", "purchase_count", "version").
		Values(p.ID, p.SupplierID, p.SupplierName, invoice,
			p.TotalAmount, p.AmountPaid, p.Balance, p.Status, p.PurchaseCount, p.Version).
		Suffix("ON CONFLICT (supplier_id) DO NOTHING")
}

// LockPayable implements ledger.PayableRepository. A second supplier
// reusing a purchase number as invoice gets the number suffixed with its id.
func (r *PayableRepo) LockPayable(ctx context.Context, seed *ledger.Payable) (*ledger.Payable, error) {
	if err := r.ensure(ctx, seed, seed.InvoiceNumber); err != nil {
		if !postgres.IsUniqueViolation(err) {
			return nil, err
		}
		fallback := seed.InvoiceNumber + "/" + seed.SupplierID.String()[:8]
		if err := r.ensure(ctx, seed, fallback); err != nil {
			return nil, postgres.MapError(err, "account payable")
		}
	}

	q := r.builder.Select(payableColumns...).
		From(payableTable).
		Where(squirrel.Eq{"supplier_id": seed.SupplierID}).
		Suffix("FOR UPDATE")
	return getOne[ledger.Payable](ctx, r.base, q, "account payable", seed.SupplierID)
}

// ensure inserts the seed inside a savepoint so a unique violation on the
// invoice number leaves the outer transaction usable.
func (r *PayableRepo) ensure(ctx context.Context, seed *ledger.Payable, invoice string) error {
	sql, args, err := r.insertQuery(seed, invoice).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	return r.txManager.Savepoint(ctx, func(ctx context.Context) error {
		_, err := r.querier(ctx).Exec(ctx, sql, args...)
		return err
	})
}

// UpdatePayable implements ledger.PayableRepository.
func (r *PayableRepo) UpdatePayable(ctx context.Context, p *ledger.Payable) error {
	sql, args, err := r.builder.Update(payableTable).
		Set("supplier_name", p.SupplierName).
		Set("total_amount", p.TotalAmount).
		Set("amount_paid", p.AmountPaid).
		Set("balance", p.Balance).
		Set("status", p.Status).
		Set("purchase_count", p.PurchaseCount).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "account payable")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("account payable", p.ID)
	}
	p.Version++
	return nil
}

// DeletePayable implements ledger.PayableRepository.
func (r *PayableRepo) DeletePayable(ctx context.Context, payableID id.ID) error {
	tag, err := r.querier(ctx).Exec(ctx, `DELETE FROM led_payables WHERE id = $1`, payableID)
	if err != nil {
		return fmt.Errorf("delete payable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("account payable", payableID)
	}
	return nil
}

// GetPayable implements ledger.PayableRepository.
func (r *PayableRepo) GetPayable(ctx context.Context, payableID id.ID) (*ledger.Payable, error) {
	q := r.builder.Select(payableColumns...).From(payableTable).Where(squirrel.Eq{"id": payableID})
	return getOne[ledger.Payable](ctx, r.base, q, "account payable", payableID)
}

// GetPayableBySupplier implements ledger.PayableRepository.
func (r *PayableRepo) GetPayableBySupplier(ctx context.Context, supplierID id.ID) (*ledger.Payable, error) {
	q := r.builder.Select(payableColumns...).From(payableTable).Where(squirrel.Eq{"supplier_id": supplierID})
	return getOne[ledger.Payable](ctx, r.base, q, "account payable", supplierID)
}

// ListPayables implements ledger.PayableRepository.
func (r *PayableRepo) ListPayables(ctx context.Context, f domain.ListFilter) (domain.ListResult[*ledger.Payable], error) {
	q := r.builder.Select(payableColumns...).From(payableTable)
	return list[*ledger.Payable](ctx, r.base, payableList, q, f)
}
