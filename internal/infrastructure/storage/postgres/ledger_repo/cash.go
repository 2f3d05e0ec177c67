package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/storage/postgres"
)

var cashColumns = []string{
	"id", "side", "method", "source_type", "source_id", "reference",
	"transaction_id", "party_name", "total_amount", "amount_paid", "balance",
	"status", "account_number", "entry_date", "version", "created_at", "updated_at",
}

var cashList = listSpec{
	table:      cashTable,
	columns:    cashColumns,
	dateColumn: "entry_date",
	searchCols: []string{"reference", "party_name", "transaction_id", "account_number"},
	sortable: map[string]string{
		"date":        "entry_date",
		"reference":   "reference",
		"amountPaid":  "amount_paid",
		"totalAmount": "total_amount",
		"partyName":   "party_name",
	},
	defaultOrder: "entry_date DESC",
}

// CashRepo implements ledger.CashRepository. The six ledgers share led_cash
// and are partitioned by (side, method).
type CashRepo struct {
	base
}

// NewCashRepo creates a new cash repository.
func NewCashRepo(txManager *postgres.TxManager) *CashRepo {
	return &CashRepo{base: newBase(txManager)}
}

// ListCashBySource implements ledger.CashRepository.
func (r *CashRepo) ListCashBySource(ctx context.Context, side ledger.Side, sourceID id.ID) ([]*ledger.CashRecord, error) {
	sql, args, err := r.builder.Select(cashColumns...).
		From(cashTable).
		Where(squirrel.Eq{"side": side, "source_id": sourceID}).
		OrderBy("method").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*ledger.CashRecord
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select cash rows: %w", err)
	}
	return rows, nil
}

func (r *CashRepo) upsertQuery(c *ledger.CashRecord) squirrel.InsertBuilder {
	return r.builder.Insert(cashTable).
		Columns("id", "side", "method", "source_type", "source_id", "reference",
			"transaction_id", "party_name", "total_amount", "amount_paid", "balance",
			"status", "account_number", "entry_date", "version").
		Values(c.ID, c.Side, c.Method, c.SourceType, c.SourceID, c.Reference,
			c.TransactionID, c.PartyName, c.TotalAmount, c.AmountPaid, c.Balance,
			c.Status, c.AccountNumber, c.EntryDate, 1).
		Suffix(`ON CONFLICT (side, method, source_id) DO UPDATE SET
			reference = EXCLUDED.reference,
			transaction_id = EXCLUDED.transaction_id,
			party_name = EXCLUDED.party_name,
			total_amount = EXCLUDED.total_amount,
			amount_paid = EXCLUDED.amount_paid,
			balance = EXCLUDED.balance,
			status = EXCLUDED.status,
			account_number = EXCLUDED.account_number,
			entry_date = EXCLUDED.entry_date,
			version = led_cash.version + 1,
			updated_at = NOW()
		RETURNING id, version, created_at, updated_at`)
}

// UpsertCash implements ledger.CashRepository.
func (r *CashRepo) UpsertCash(ctx context.Context, c *ledger.CashRecord) error {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	sql, args, err := r.upsertQuery(c).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "cash record")
	}
	return nil
}

// DeleteCash implements ledger.CashRepository.
func (r *CashRepo) DeleteCash(ctx context.Context, key ledger.CashKey) error {
	_, err := r.querier(ctx).Exec(ctx,
		`DELETE FROM led_cash WHERE side = $1 AND method = $2 AND source_id = $3`,
		key.Side, key.Method, key.SourceID)
	if err != nil {
		return fmt.Errorf("delete cash row: %w", err)
	}
	return nil
}

// GetCash implements ledger.CashRepository.
func (r *CashRepo) GetCash(ctx context.Context, side ledger.Side, method ledger.Method, cashID id.ID) (*ledger.CashRecord, error) {
	q := r.builder.Select(cashColumns...).
		From(cashTable).
		Where(squirrel.Eq{"id": cashID, "side": side, "method": method})
	return getOne[ledger.CashRecord](ctx, r.base, q, "cash record", cashID)
}

// ListCash implements ledger.CashRepository.
func (r *CashRepo) ListCash(ctx context.Context, side ledger.Side, method ledger.Method, f domain.ListFilter) (domain.ListResult[*ledger.CashRecord], error) {
	q := r.builder.Select(cashColumns...).
		From(cashTable).
		Where(squirrel.Eq{"side": side, "method": method})
	return list[*ledger.CashRecord](ctx, r.base, cashList, q, f)
}
