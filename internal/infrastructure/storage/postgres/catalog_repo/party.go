package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/infrastructure/storage/postgres"
)

const (
	customerTable = "cat_customers"
	supplierTable = "cat_suppliers"
)

// PartyRepo implements party.Repository for customers or suppliers.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
	kind party.Kind
}

// NewCustomerRepo creates the customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *PartyRepo {
	return newPartyRepo(txManager, customerTable, party.KindCustomer)
}

// NewSupplierRepo creates the supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *PartyRepo {
	return newPartyRepo(txManager, supplierTable, party.KindSupplier)
}

func newPartyRepo(txManager *postgres.TxManager, table string, kind party.Kind) *PartyRepo {
	base := NewBaseCatalogRepo[*party.Party](
		txManager,
		table,
		string(kind),
		postgres.ExtractDBColumns[party.Party](),
		func() *party.Party { return &party.Party{} },
	).WithSearchColumns("name", "code", "email", "phone")

	return &PartyRepo{BaseCatalogRepo: base, kind: kind}
}

// FindByEmail retrieves a party by email, case-insensitively.
func (r *PartyRepo) FindByEmail(ctx context.Context, email string) (*party.Party, error) {
	q := r.baseSelect().
		Where(squirrel.Expr("lower(email) = lower(?)", email)).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(string(r.kind), email)
		}
		return nil, err
	}
	return p, nil
}
