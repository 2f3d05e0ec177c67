package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/infrastructure/storage/postgres"
)

const paymentTable = "doc_purchase_payments"

var paymentColumns = []string{"line_no", "amount", "payment_type", "account_number", "paid_at"}

// PurchaseRepo stores purchases and their payment lines.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_purchases", "purchase",
			func() *purchase.Purchase { return &purchase.Purchase{} },
			"supplier_name", "status"),
	}
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// Create inserts the purchase and its payments.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	if err := r.BaseDocumentRepo.Create(ctx, p); err != nil {
		return err
	}
	return r.savePayments(ctx, p)
}

// Update rewrites the purchase and replaces its payments.
func (r *PurchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	if err := r.BaseDocumentRepo.Update(ctx, p); err != nil {
		return err
	}
	return r.savePayments(ctx, p)
}

func (r *PurchaseRepo) paymentsInsert(p *purchase.Purchase) (squirrel.InsertBuilder, bool) {
	if len(p.Payments) == 0 {
		return squirrel.InsertBuilder{}, false
	}
	q := r.Builder().
		Insert(paymentTable).
		Columns(append([]string{"purchase_id"}, paymentColumns...)...)
	for _, pay := range p.Payments {
		q = q.Values(p.ID, pay.LineNo, pay.Amount, pay.Type, pay.AccountNumber, pay.PaidAt)
	}
	return q, true
}

func (r *PurchaseRepo) savePayments(ctx context.Context, p *purchase.Purchase) error {
	querier := r.Querier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+paymentTable+" WHERE purchase_id = $1", p.ID); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}

	q, ok := r.paymentsInsert(p)
	if !ok {
		return nil
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build payments insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "purchase payment")
	}
	return nil
}

func (r *PurchaseRepo) loadPayments(ctx context.Context, p *purchase.Purchase) error {
	sql, args, err := r.Builder().
		Select(paymentColumns...).
		From(paymentTable).
		Where(squirrel.Eq{"purchase_id": p.ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build payments query: %w", err)
	}

	p.Payments = []purchase.Payment{}
	if err := pgxscan.Select(ctx, r.Querier(ctx), &p.Payments, sql, args...); err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) withPayments(ctx context.Context, p *purchase.Purchase, err error) (*purchase.Purchase, error) {
	if err != nil {
		return p, err
	}
	return p, r.loadPayments(ctx, p)
}

// GetByID retrieves a purchase with payments.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := r.BaseDocumentRepo.GetByID(ctx, purchaseID)
	return r.withPayments(ctx, p, err)
}

// GetByNumber retrieves a purchase by orderId with payments.
func (r *PurchaseRepo) GetByNumber(ctx context.Context, number string) (*purchase.Purchase, error) {
	p, err := r.BaseDocumentRepo.GetByNumber(ctx, number)
	return r.withPayments(ctx, p, err)
}

// GetForUpdate locks a purchase and loads its payments.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	p, err := r.BaseDocumentRepo.GetForUpdate(ctx, purchaseID)
	return r.withPayments(ctx, p, err)
}

// List retrieves purchases with their payments.
func (r *PurchaseRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	result, err := r.BaseDocumentRepo.List(ctx, f)
	if err != nil || len(result.Items) == 0 {
		return result, err
	}

	ids := make([]id.ID, len(result.Items))
	byID := make(map[id.ID]*purchase.Purchase, len(result.Items))
	for i, p := range result.Items {
		ids[i] = p.ID
		p.Payments = []purchase.Payment{}
		byID[p.ID] = p
	}

	sql, args, err := r.Builder().
		Select(append([]string{"purchase_id"}, paymentColumns...)...).
		From(paymentTable).
		Where(squirrel.Eq{"purchase_id": ids}).
		OrderBy("purchase_id", "line_no").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build payments query: %w", err)
	}

	var lines []paymentRow
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return result, fmt.Errorf("load payments: %w", err)
	}
	for _, l := range lines {
		if p, ok := byID[l.PurchaseID]; ok {
			p.Payments = append(p.Payments, l.Payment)
		}
	}
	return result, nil
}

type paymentRow struct {
	PurchaseID id.ID `db:"purchase_id"`
	purchase.Payment
}
