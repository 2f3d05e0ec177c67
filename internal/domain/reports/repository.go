package reports

import (
	"context"
	"time"

	"bizbook/internal/core/id"
)

// Repository defines report data access.
// Date bounds are half-open: From inclusive, To exclusive.
type Repository interface {
	ProfitLossTotals(ctx context.Context, period Period, warehouseID *id.ID) (ProfitLossTotals, error)
	BalanceTotals(ctx context.Context, asOf time.Time) (BalanceTotals, error)

	SalesByDay(ctx context.Context, period Period, warehouseID *id.ID) ([]SalesDay, error)
	PurchasesBySupplier(ctx context.Context, period Period, warehouseID *id.ID) ([]SupplierPurchases, error)
	ExpensesByCategory(ctx context.Context, period Period) ([]CategoryExpenses, error)
	Stock(ctx context.Context, warehouseID *id.ID) ([]StockItem, error)

	Journal(ctx context.Context, period Period, types []string, limit, offset int) ([]JournalItem, int64, error)
}
