package catalog_repo

import (
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txManager,
			productTable,
			"product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		).WithSearchColumns("name", "code", "barcode", "brand", "category"),
	}
}
