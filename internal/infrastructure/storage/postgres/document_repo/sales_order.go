package document_repo

import (
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/infrastructure/storage/postgres"
)

// SalesOrderRepo stores sales orders.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*sales_order.SalesOrder]
}

// NewSalesOrderRepo creates a sales order repository.
func NewSalesOrderRepo(txManager *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager, "doc_sales_orders", "sales order",
			func() *sales_order.SalesOrder { return &sales_order.SalesOrder{} },
			"customer_name", "status"),
	}
}

var _ sales_order.Repository = (*SalesOrderRepo)(nil)
