package returns

import (
	"context"
	"fmt"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/documents"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/sales_order"
)

// Repository persists one kind of return.
type Repository interface {
	documents.Repository[*Return]
	SumReturnedQuantity(ctx context.Context, orderID, excludeID id.ID) (int64, error)
}

// Order is the part of an original order a return needs.
type Order struct {
	ID          id.ID
	Number      string
	PartyID     *id.ID
	PartyName   string
	ProductID   id.ID
	WarehouseID id.ID
	Quantity    int64
	Cancelled   bool
}

// OrderLookup locks an original order by business number.
type OrderLookup interface {
	LockOrder(ctx context.Context, number string) (Order, error)
}

// OrderLookupFunc adapts a function to OrderLookup.
type OrderLookupFunc func(ctx context.Context, number string) (Order, error)

// LockOrder implements OrderLookup.
func (f OrderLookupFunc) LockOrder(ctx context.Context, number string) (Order, error) {
	return f(ctx, number)
}

// PurchaseOrders looks up purchases by orderId.
func PurchaseOrders(repo purchase.Repository) OrderLookup {
	return OrderLookupFunc(func(ctx context.Context, number string) (Order, error) {
		p, err := repo.LockByNumber(ctx, number)
		if err != nil {
			return Order{}, err
		}
		return Order{
			ID:          p.ID,
			Number:      p.Number,
			PartyID:     p.SupplierID,
			PartyName:   p.SupplierName,
			ProductID:   p.ProductID,
			WarehouseID: p.WarehouseID,
			Quantity:    p.Quantity,
			Cancelled:   p.Status == purchase.StatusCancelled,
		}, nil
	})
}

// SalesOrders looks up sales orders by orderNumber.
func SalesOrders(repo sales_order.Repository) OrderLookup {
	return OrderLookupFunc(func(ctx context.Context, number string) (Order, error) {
		o, err := repo.LockByNumber(ctx, number)
		if err != nil {
			return Order{}, err
		}
		return Order{
			ID:          o.ID,
			Number:      o.Number,
			PartyID:     o.CustomerID,
			PartyName:   o.CustomerName,
			ProductID:   o.ProductID,
			WarehouseID: o.WarehouseID,
			Quantity:    o.Quantity,
			Cancelled:   o.Status == sales_order.StatusCancelled,
		}, nil
	})
}

// Service provides business operations for one kind of return.
type Service struct {
	*documents.Service[*Return]
	kind   Kind
	repo   Repository
	orders OrderLookup
}

// NewService creates a return service of the given kind.
func NewService(
	kind Kind,
	repo Repository,
	txManager tx.Manager,
	gen numerator.Generator,
	ledger documents.Syncer,
	orders OrderLookup,
) *Service {
	cfg := numerator.SalesReturnConfig
	name := "sales return"
	if kind == KindPurchase {
		cfg = numerator.PurchaseReturnConfig
		name = "purchase return"
	}

	s := &Service{
		Service: documents.NewService(documents.Config[*Return]{
			Repo:       repo,
			TxManager:  txManager,
			Numerator:  gen,
			Numbering:  cfg,
			Ledger:     ledger,
			EntityName: name,
		}),
		kind:   kind,
		repo:   repo,
		orders: orders,
	}
	s.Hooks().OnBeforeCreate(s.checkOutstanding)
	s.Hooks().OnBeforeUpdate(s.checkOutstanding)
	s.Hooks().OnBeforeDelete(s.checkDeletable)
	return s
}

// Kind returns the kind of returns the service handles.
func (s *Service) Kind() Kind {
	return s.kind
}

// Create stores the return and moves stock.
func (s *Service) Create(ctx context.Context, r *Return) error {
	r.Kind = s.kind
	return s.Service.Create(ctx, r)
}

// Update rewrites the return and moves stock by the quantity difference.
func (s *Service) Update(ctx context.Context, r *Return) error {
	r.Kind = s.kind
	return s.Service.Update(ctx, r)
}

// checkOutstanding copies the order fields onto r and rejects quantities
// above what the order still has outstanding. A cancelled order moved no
// stock, so nothing can be returned against it. The order row stays locked
// until commit, so concurrent returns against one order serialize here.
func (s *Service) checkOutstanding(ctx context.Context, r *Return) error {
	order, err := s.orders.LockOrder(ctx, r.OrderNumber)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("order", r.OrderNumber)
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if order.Cancelled {
		return apperror.NewBusinessRule(apperror.CodeOrderCancelled,
			"cannot return against a cancelled order").
			WithDetail("orderNumber", order.Number)
	}

	r.OrderID = order.ID
	r.PartyID = order.PartyID
	r.PartyName = order.PartyName
	r.ProductID = order.ProductID
	r.WarehouseID = order.WarehouseID

	returned, err := s.repo.SumReturnedQuantity(ctx, order.ID, r.ID)
	if err != nil {
		return err
	}
	outstanding := order.Quantity - returned
	if r.Quantity > outstanding {
		return apperror.NewOverReturn(order.Number, r.Quantity, outstanding)
	}
	return nil
}

func (s *Service) checkDeletable(ctx context.Context, r *Return) error {
	if r.Status.Settled() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("a %s return cannot be deleted", r.Status)).
			WithDetail("returnId", r.Number)
	}
	return nil
}
