package documents

import (
	"context"
	"fmt"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
)

// ReturnedQuantity sums the returns recorded against an order.
type ReturnedQuantity interface {
	SumReturnedQuantity(ctx context.Context, orderID, excludeID id.ID) (int64, error)
}

// OrderChange is an update of an order that already has returns.
type OrderChange struct {
	OrderID        id.ID
	Number         string
	Quantity       int64
	Cancelled      bool // the update cancels the order
	ProductChanged bool
}

// GuardReturns rejects updates that would leave the recorded returns of an
// order without the stock movement they undo: cancelling the order, moving
// it to another product, or lowering its quantity below the returned total.
func GuardReturns(ctx context.Context, returns ReturnedQuantity, ch OrderChange) error {
	returned, err := returns.SumReturnedQuantity(ctx, ch.OrderID, id.Nil())
	if err != nil {
		return fmt.Errorf("sum returns: %w", err)
	}
	if returned == 0 {
		return nil
	}

	switch {
	case ch.Cancelled:
		return apperror.NewBusinessRule(apperror.CodeOrderHasReturns,
			"order has returns; delete the returns before cancelling it").
			WithDetail("orderNumber", ch.Number).
			WithDetail("returned", returned)
	case ch.ProductChanged:
		return apperror.NewBusinessRule(apperror.CodeOrderHasReturns,
			"order has returns; its product cannot change").
			WithDetail("orderNumber", ch.Number).
			WithDetail("returned", returned)
	case ch.Quantity < returned:
		return apperror.NewValidation("quantity is below the quantity already returned").
			WithDetail("field", "quantity").
			WithDetail("returned", returned)
	}
	return nil
}
