package documents

import (
	"context"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
)

// PartyReader reads customers or suppliers.
type PartyReader interface {
	GetByID(ctx context.Context, partyID id.ID) (*party.Party, error)
}

// ProductReader reads products.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// WarehouseChecker verifies warehouse references.
type WarehouseChecker interface {
	Exists(ctx context.Context, warehouseID id.ID) (bool, error)
}

// References resolves the catalog entries documents point at.
type References struct {
	Customers  PartyReader
	Suppliers  PartyReader
	Products   ProductReader
	Warehouses WarehouseChecker
}

// Customer returns the customer or NOT_FOUND.
func (r References) Customer(ctx context.Context, customerID id.ID) (*party.Party, error) {
	return resolve(ctx, r.Customers, "customer", customerID)
}

// Supplier returns the supplier or NOT_FOUND.
func (r References) Supplier(ctx context.Context, supplierID id.ID) (*party.Party, error) {
	return resolve(ctx, r.Suppliers, "supplier", supplierID)
}

// Product returns the product or NOT_FOUND.
func (r References) Product(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, err := r.Products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, err
	}
	return p, nil
}

// RequireWarehouse fails with NOT_FOUND when the warehouse does not exist.
func (r References) RequireWarehouse(ctx context.Context, warehouseID id.ID) error {
	ok, err := r.Warehouses.Exists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound("warehouse", warehouseID)
	}
	return nil
}

func resolve(ctx context.Context, reader PartyReader, entity string, partyID id.ID) (*party.Party, error) {
	p, err := reader.GetByID(ctx, partyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entity, partyID)
		}
		return nil, err
	}
	return p, nil
}
