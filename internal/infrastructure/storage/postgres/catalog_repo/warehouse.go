package catalog_repo

import (
	"bizbook/internal/domain/catalogs/warehouse"
	"bizbook/internal/infrastructure/storage/postgres"
)

const warehouseTable = "cat_warehouses"

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*warehouse.Warehouse](
			txManager,
			warehouseTable,
			"warehouse",
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		).
			WithSearchColumns("name", "code", "location").
			WithManagedColumns("total_products", "total_stock"),
	}
}
