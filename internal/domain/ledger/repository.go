package ledger

import (
	"context"
	"time"

	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
)

// StockRepository applies stock deltas to products.
type StockRepository interface {
	// ApplyStockDelta adds delta to the product stock with a conditional
	// update that never lets stock drop below zero. It returns
	// INSUFFICIENT_STOCK when the product holds less than -delta.
	ApplyStockDelta(ctx context.Context, productID id.ID, delta int64) (StockChange, error)

	// RecordMovement appends the applied delta to the stock register.
	RecordMovement(ctx context.Context, m entity.StockMovement) error

	ListMovements(ctx context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[entity.StockMovement], error)
}

// PayableRepository stores the one payable per supplier.
type PayableRepository interface {
	// LockPayable returns the supplier's payable locked FOR UPDATE, creating
	// an empty one when the supplier has none yet.
	LockPayable(ctx context.Context, seed *Payable) (*Payable, error)

	// UpdatePayable writes amounts guarded by the version read in LockPayable.
	UpdatePayable(ctx context.Context, p *Payable) error

	DeletePayable(ctx context.Context, payableID id.ID) error

	GetPayable(ctx context.Context, payableID id.ID) (*Payable, error)
	GetPayableBySupplier(ctx context.Context, supplierID id.ID) (*Payable, error)
	ListPayables(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payable], error)
}

// ReceivableRepository stores one receivable per sales order.
type ReceivableRepository interface {
	CreateReceivable(ctx context.Context, r *Receivable) error

	// LockReceivable returns the order's receivable locked FOR UPDATE.
	LockReceivable(ctx context.Context, salesOrderID id.ID) (*Receivable, error)
	UpdateReceivable(ctx context.Context, r *Receivable) error
	// DeleteReceivable removes the order's receivable and returns its id.
	DeleteReceivable(ctx context.Context, salesOrderID id.ID) (id.ID, error)

	GetReceivable(ctx context.Context, receivableID id.ID) (*Receivable, error)
	ListReceivables(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Receivable], error)

	// MarkOverdue sets Overdue on unpaid receivables due before now.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// CashRepository stores the cash ledger rows of all six ledgers.
type CashRepository interface {
	// ListCashBySource returns every row the document owns, on all methods.
	ListCashBySource(ctx context.Context, side Side, sourceID id.ID) ([]*CashRecord, error)

	// UpsertCash inserts the row or overwrites the row with the same key.
	UpsertCash(ctx context.Context, c *CashRecord) error
	DeleteCash(ctx context.Context, key CashKey) error

	GetCash(ctx context.Context, side Side, method Method, cashID id.ID) (*CashRecord, error)
	ListCash(ctx context.Context, side Side, method Method, filter domain.ListFilter) (domain.ListResult[*CashRecord], error)
}

// CounterRepository maintains brand, category and warehouse totals.
type CounterRepository interface {
	// AdjustCounter applies the delta. Brands and categories missing for a
	// name are created with auto_created = true.
	AdjustCounter(ctx context.Context, d CounterDelta) (CounterState, error)

	// DeleteCounter removes an auto-created brand or category.
	DeleteCounter(ctx context.Context, kind CounterKind, counterID id.ID) error

	// RecalculateCounters rebuilds every total from the product table.
	RecalculateCounters(ctx context.Context) (CounterTotals, error)
}

// Stores groups the repositories the service writes through.
type Stores struct {
	Stock       StockRepository
	Payables    PayableRepository
	Receivables ReceivableRepository
	Cash        CashRepository
	Counters    CounterRepository
}

// AuditLog records each ledger adjustment.
type AuditLog interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any, metadata map[string]any) error
}

// EventOutbox enqueues an event in the caller's transaction.
type EventOutbox interface {
	Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error
}

// Locker runs fn while holding a cluster-wide lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}
