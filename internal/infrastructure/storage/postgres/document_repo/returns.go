package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/infrastructure/storage/postgres"
)

// ReturnRepo stores one kind of return. Loaded returns carry the kind of
// the repository.
type ReturnRepo struct {
	*BaseDocumentRepo[*returns.Return]
	kind returns.Kind
}

// NewPurchaseReturnRepo creates the purchase return repository.
func NewPurchaseReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return newReturnRepo(txManager, returns.KindPurchase, "doc_purchase_returns", "purchase return")
}

// NewSalesReturnRepo creates the sales return repository.
func NewSalesReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return newReturnRepo(txManager, returns.KindSales, "doc_sales_returns", "sales return")
}

func newReturnRepo(txManager *postgres.TxManager, kind returns.Kind, table, entityName string) *ReturnRepo {
	return &ReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, table, entityName,
			func() *returns.Return { return &returns.Return{Kind: kind} },
			"order_number", "party_name", "reason", "status"),
		kind: kind,
	}
}

var _ returns.Repository = (*ReturnRepo)(nil)

// List retrieves returns.
func (r *ReturnRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*returns.Return], error) {
	result, err := r.BaseDocumentRepo.List(ctx, f)
	for _, ret := range result.Items {
		ret.Kind = r.kind
	}
	return result, err
}

func (r *ReturnRepo) returnedQuery(orderID, excludeID id.ID) squirrel.SelectBuilder {
	q := r.Builder().
		Select("COALESCE(SUM(quantity), 0)::BIGINT").
		From(r.tableName).
		Where(squirrel.Eq{"order_id": orderID})
	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return q
}

// SumReturnedQuantity totals the quantity returned against an order,
// leaving out excludeID.
func (r *ReturnRepo) SumReturnedQuantity(ctx context.Context, orderID, excludeID id.ID) (int64, error) {
	var sum int64
	err := r.scalar(ctx, r.returnedQuery(orderID, excludeID), &sum)
	return sum, err
}
