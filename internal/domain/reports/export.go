package reports

import (
	"fmt"
	"time"
)

const moneyHeader = "Amount"

// ProfitLossTable lays the statement out as label and amount rows.
func ProfitLossTable(p *ProfitLoss) Table {
	return Table{
		Title:   "Profit and Loss",
		Headers: []string{"Line", moneyHeader},
		Rows: [][]any{
			{"Period", fmt.Sprintf("%s - %s", p.Period.From.Format(time.DateOnly), p.Period.To.Format(time.DateOnly))},
			{"Gross sales", p.GrossSales.InexactFloat64()},
			{"Sales returns", p.SalesReturns.InexactFloat64()},
			{"Net sales", p.NetSales.InexactFloat64()},
			{"Purchases", p.Purchases.InexactFloat64()},
			{"Purchase returns", p.PurchaseReturns.InexactFloat64()},
			{"Cost of goods sold", p.COGS.InexactFloat64()},
			{"Gross profit", p.GrossProfit.InexactFloat64()},
			{"Expenses", p.Expenses.InexactFloat64()},
			{"Net profit", p.NetProfit.InexactFloat64()},
		},
	}
}

// SalesTable lays out the sales report.
func SalesTable(r *Report[SalesDay]) Table {
	t := Table{Title: "Sales", Headers: []string{"Day", "Orders", "Quantity", "Total", "Paid"}}
	for _, d := range r.Items {
		t.Rows = append(t.Rows, []any{d.Day.Format(time.DateOnly), d.Orders, d.Quantity, d.Total.InexactFloat64(), d.Paid.InexactFloat64()})
	}
	return t
}

// PurchasesTable lays out the purchase report.
func PurchasesTable(r *Report[SupplierPurchases]) Table {
	t := Table{Title: "Purchases", Headers: []string{"Supplier", "Purchases", "Quantity", "Total", "Paid", "Balance"}}
	for _, s := range r.Items {
		t.Rows = append(t.Rows, []any{s.SupplierName, s.Purchases, s.Quantity, s.Total.InexactFloat64(), s.Paid.InexactFloat64(), s.Balance.InexactFloat64()})
	}
	return t
}

// ExpensesTable lays out the expense report.
func ExpensesTable(r *Report[CategoryExpenses]) Table {
	t := Table{Title: "Expenses", Headers: []string{"Category", "Count", "Total"}}
	for _, c := range r.Items {
		t.Rows = append(t.Rows, []any{c.Category, c.Count, c.Total.InexactFloat64()})
	}
	return t
}

// StockTable lays out the stock report.
func StockTable(r *Report[StockItem]) Table {
	t := Table{Title: "Stock", Headers: []string{"Product", "Name", "Warehouse", "Brand", "Category", "Stock", "Price", "Value"}}
	for _, s := range r.Items {
		t.Rows = append(t.Rows, []any{s.Code, s.Name, s.WarehouseName, s.Brand, s.Category, s.Stock, s.Price.InexactFloat64(), s.Value.InexactFloat64()})
	}
	return t
}
