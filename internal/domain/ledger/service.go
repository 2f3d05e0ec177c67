package ledger

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/core/tx"
	"bizbook/pkg/logger"
)

// Audit entity types written by the service.
const (
	EntityPayable    = "account_payable"
	EntityReceivable = "account_receivable"
	EntityCash       = "cash_ledger"
	EntityStock      = "product_stock"
	EntityCounter    = "counter"
)

// EventSynced is published once per Sync.
const EventSynced = "ledger.synced"

// Lock keys of the singleton jobs.
const (
	LockRecount = "ledger:recount"
	LockOverdue = "ledger:overdue"
)

const jobLockTTL = 5 * time.Minute

var tracer = otel.Tracer("bizbook/ledger")

// Config wires the service.
type Config struct {
	Stores    Stores
	TxManager tx.Manager
	Audit     AuditLog
	Outbox    EventOutbox
	// Locker guards the singleton jobs. Nil runs them without a lock.
	Locker Locker
	// Now is the clock used for overdue decisions; defaults to time.Now.
	Now func() time.Time
}

// Service is the single writer of derived ledger records.
type Service struct {
	stores    Stores
	txManager tx.Manager
	audit     AuditLog
	outbox    EventOutbox
	locker    Locker
	now       func() time.Time
}

// NewService creates a ledger service.
func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		stores:    cfg.Stores,
		txManager: cfg.TxManager,
		audit:     cfg.Audit,
		outbox:    cfg.Outbox,
		locker:    cfg.Locker,
		now:       now,
	}
}

// syncSummary is the payload of the ledger.synced event.
type syncSummary struct {
	Recorder   Recorder         `json:"recorder"`
	Stock      []stockSummary   `json:"stock,omitempty"`
	Payables   []payableSummary `json:"payables,omitempty"`
	Receivable *recordSummary   `json:"receivable,omitempty"`
	Cash       []cashSummary    `json:"cash,omitempty"`
}

type stockSummary struct {
	ProductID id.ID `json:"productId"`
	Delta     int64 `json:"delta"`
	Balance   int64 `json:"balance"`
}

type payableSummary struct {
	SupplierID id.ID         `json:"supplierId"`
	Action     string        `json:"action"`
	Status     PayableStatus `json:"status,omitempty"`
}

type recordSummary struct {
	Action string `json:"action"`
	Status string `json:"status,omitempty"`
}

type cashSummary struct {
	Side   Side   `json:"side"`
	Method Method `json:"method"`
	Action string `json:"action"`
}

// Sync applies after minus before for the recorder document in one
// transaction: stock, payables, receivable and cash rows, each change
// audited, followed by one ledger.synced outbox event.
// before == nil means the document is being created, after == nil that it
// is being deleted.
func (s *Service) Sync(ctx context.Context, rec Recorder, before, after *EntrySet) error {
	ctx, span := tracer.Start(ctx, "ledger.Sync", trace.WithAttributes(
		attribute.String("recorder.type", rec.Type),
		attribute.String("recorder.number", rec.Number),
	))
	defer span.End()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		summary := &syncSummary{Recorder: rec}

		if err := s.syncStock(ctx, rec, before, after, summary); err != nil {
			return err
		}
		if err := s.syncPayable(ctx, rec, before, after, summary); err != nil {
			return err
		}
		if err := s.syncReceivable(ctx, rec, before, after, summary); err != nil {
			return err
		}
		if err := s.syncCash(ctx, rec, before, after, summary); err != nil {
			return err
		}
		if s.outbox == nil {
			return nil
		}
		if err := s.outbox.Publish(ctx, rec.Type, rec.ID, EventSynced, summary); err != nil {
			return fmt.Errorf("publish %s: %w", EventSynced, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	logger.Debug(ctx, "ledger synced", "recorder", rec.Type, "number", rec.Number)
	return nil
}

func (s *Service) syncStock(ctx context.Context, rec Recorder, before, after *EntrySet, summary *syncSummary) error {
	for _, d := range stockDeltas(before, after) {
		change, err := s.stores.Stock.ApplyStockDelta(ctx, d.ProductID, d.Delta)
		if err != nil {
			return err
		}

		movement := entity.NewStockMovement(rec.Type, rec.ID, rec.Number, d.ProductID, d.Delta, change.Stock)
		movement.CreatedBy = appctx.Actor(ctx)
		if err := s.stores.Stock.RecordMovement(ctx, movement); err != nil {
			return fmt.Errorf("record stock movement: %w", err)
		}

		for _, cd := range stockCounterDeltas(change, d.Delta) {
			if err := s.applyCounter(ctx, rec, cd); err != nil {
				return err
			}
		}

		if err := s.log(ctx, rec, EntityStock, d.ProductID, "adjust", map[string]any{
			"delta":   d.Delta,
			"balance": change.Stock,
		}); err != nil {
			return err
		}
		summary.Stock = append(summary.Stock, stockSummary{ProductID: d.ProductID, Delta: d.Delta, Balance: change.Stock})
	}
	return nil
}

func (s *Service) syncPayable(ctx context.Context, rec Recorder, before, after *EntrySet, summary *syncSummary) error {
	var b, a *PayableEntry
	if before != nil {
		b = before.Payable
	}
	if after != nil {
		a = after.Payable
	}

	for _, d := range payableDeltas(b, a) {
		if id.IsNil(d.Entry.SupplierID) {
			// The supplier was deleted; its documents keep only the name.
			continue
		}

		p, err := s.stores.Payables.LockPayable(ctx, NewPayable(d.Entry.SupplierID, d.Entry.SupplierName, d.Entry.InvoiceNumber))
		if err != nil {
			return fmt.Errorf("lock payable: %w", err)
		}

		old := payableState(p)
		p.ApplyDelta(d.Total, d.Paid, d.Purchases)
		if d.Purchases >= 0 && d.Entry.SupplierName != "" {
			p.SupplierName = d.Entry.SupplierName
		}

		action := "update"
		if p.Empty() {
			action = "delete"
			if err := s.stores.Payables.DeletePayable(ctx, p.ID); err != nil {
				return fmt.Errorf("delete payable: %w", err)
			}
		} else if err := s.stores.Payables.UpdatePayable(ctx, p); err != nil {
			return err
		}

		if err := s.log(ctx, rec, EntityPayable, p.ID, action, map[string]any{
			"delta": map[string]any{"total": d.Total, "paid": d.Paid, "purchases": d.Purchases},
			"old":   old,
			"new":   payableState(p),
		}); err != nil {
			return err
		}
		summary.Payables = append(summary.Payables, payableSummary{SupplierID: p.SupplierID, Action: action, Status: p.Status})
	}
	return nil
}

func payableState(p *Payable) map[string]any {
	return map[string]any{
		"totalAmount":   p.TotalAmount,
		"amountPaid":    p.AmountPaid,
		"balance":       p.Balance,
		"status":        p.Status,
		"purchaseCount": p.PurchaseCount,
	}
}

func (s *Service) syncReceivable(ctx context.Context, rec Recorder, before, after *EntrySet, summary *syncSummary) error {
	var b, a *ReceivableEntry
	if before != nil {
		b = before.Receivable
	}
	if after != nil {
		a = after.Receivable
	}
	if a == nil && b == nil {
		return nil
	}

	now := s.now()

	if a == nil {
		receivableID, err := s.stores.Receivables.DeleteReceivable(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("delete receivable: %w", err)
		}
		summary.Receivable = &recordSummary{Action: "delete"}
		return s.log(ctx, rec, EntityReceivable, receivableID, "delete", map[string]any{"invoiceNumber": b.InvoiceNumber})
	}

	if b != nil && b.equal(a) {
		return nil
	}

	r, err := s.stores.Receivables.LockReceivable(ctx, rec.ID)
	switch {
	case err == nil:
	case apperror.IsNotFound(err):
		r = nil
	default:
		return fmt.Errorf("lock receivable: %w", err)
	}

	action := "update"
	var old map[string]any
	if r == nil {
		action = "create"
		r = &Receivable{
			ID:           id.New(),
			SalesOrderID: rec.ID,
			Version:      1,
			CreatedAt:    now.UTC(),
		}
	} else {
		old = receivableState(r)
	}

	r.InvoiceNumber = a.InvoiceNumber
	r.CustomerID = a.CustomerID
	r.CustomerName = a.CustomerName
	r.Amount = a.Amount
	r.AmountPaid = a.Paid
	r.DueDate = a.DueDate
	r.UpdatedAt = now.UTC()
	r.Recalculate(now)

	if action == "create" {
		err = s.stores.Receivables.CreateReceivable(ctx, r)
	} else {
		err = s.stores.Receivables.UpdateReceivable(ctx, r)
	}
	if err != nil {
		return err
	}

	summary.Receivable = &recordSummary{Action: action, Status: string(r.Status)}
	return s.log(ctx, rec, EntityReceivable, r.ID, action, map[string]any{
		"old": old,
		"new": receivableState(r),
	})
}

func receivableState(r *Receivable) map[string]any {
	return map[string]any{
		"amount":     r.Amount,
		"amountPaid": r.AmountPaid,
		"balance":    r.Balance,
		"status":     r.Status,
		"dueDate":    r.DueDate,
	}
}

// syncCash reconciles the rows stored for the recorder with the after state.
// Stored rows are the reference, so rows left behind by an earlier failure
// are removed too.
func (s *Service) syncCash(ctx context.Context, rec Recorder, before, after *EntrySet, summary *syncSummary) error {
	wanted := make(map[CashKey]CashEntry)
	sides := make(map[Side]struct{})
	if before != nil {
		for _, e := range before.Cash {
			sides[e.Side] = struct{}{}
		}
	}
	if after != nil {
		for _, e := range after.Cash {
			sides[e.Side] = struct{}{}
			wanted[CashKey{Side: e.Side, Method: e.Method, SourceID: rec.ID}] = e
		}
	}

	for _, side := range []Side{SidePurchase, SideSales} {
		if _, ok := sides[side]; !ok {
			continue
		}

		stored, err := s.stores.Cash.ListCashBySource(ctx, side, rec.ID)
		if err != nil {
			return fmt.Errorf("list cash rows: %w", err)
		}
		existing := make(map[CashKey]*CashRecord, len(stored))
		for _, c := range stored {
			existing[c.Key()] = c
		}

		for key, c := range existing {
			if _, keep := wanted[key]; keep {
				continue
			}
			if err := s.stores.Cash.DeleteCash(ctx, key); err != nil {
				return fmt.Errorf("delete cash row: %w", err)
			}
			if err := s.log(ctx, rec, EntityCash, c.ID, "delete", map[string]any{"side": key.Side, "method": key.Method}); err != nil {
				return err
			}
			summary.Cash = append(summary.Cash, cashSummary{Side: key.Side, Method: key.Method, Action: "delete"})
		}

		for _, method := range Methods {
			key := CashKey{Side: side, Method: method, SourceID: rec.ID}
			e, ok := wanted[key]
			if !ok {
				continue
			}
			current := existing[key]
			if current != nil && cashMatches(current, e, rec.Type) {
				continue
			}

			row := cashRecord(rec, e, s.now().UTC())
			if err := s.stores.Cash.UpsertCash(ctx, row); err != nil {
				return err
			}

			action := "create"
			if current != nil {
				action = "update"
			}
			if err := s.log(ctx, rec, EntityCash, row.ID, action, map[string]any{
				"side":        row.Side,
				"method":      row.Method,
				"totalAmount": row.TotalAmount,
				"amountPaid":  row.AmountPaid,
				"balance":     row.Balance,
				"status":      row.Status,
			}); err != nil {
				return err
			}
			summary.Cash = append(summary.Cash, cashSummary{Side: side, Method: method, Action: action})
		}
	}
	return nil
}

func cashRecord(rec Recorder, e CashEntry, now time.Time) *CashRecord {
	return &CashRecord{
		ID:            id.New(),
		Side:          e.Side,
		Method:        e.Method,
		SourceType:    rec.Type,
		SourceID:      rec.ID,
		Reference:     e.Reference,
		TransactionID: e.TransactionID,
		PartyName:     e.PartyName,
		TotalAmount:   e.TotalAmount,
		AmountPaid:    e.AmountPaid,
		Balance:       Balance(e.TotalAmount, e.AmountPaid),
		Status:        CashStatusFor(e.TotalAmount, e.AmountPaid),
		AccountNumber: e.AccountNumber,
		EntryDate:     e.Date,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func cashMatches(c *CashRecord, e CashEntry, sourceType string) bool {
	return c.SourceType == sourceType &&
		c.Reference == e.Reference &&
		c.TransactionID == e.TransactionID &&
		c.PartyName == e.PartyName &&
		c.TotalAmount.Equal(e.TotalAmount) &&
		c.AmountPaid.Equal(e.AmountPaid) &&
		c.AccountNumber == e.AccountNumber &&
		c.EntryDate.Equal(e.Date)
}

// ApplyProductChange updates brand, category and warehouse counters for a
// product write. before is nil on create, after is nil on delete.
func (s *Service) ApplyProductChange(ctx context.Context, before, after *ProductSnapshot) error {
	var productID id.ID
	switch {
	case after != nil:
		productID = after.ID
	case before != nil:
		productID = before.ID
	default:
		return nil
	}
	rec := Recorder{Type: "product", ID: productID}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, d := range counterDeltas(before, after) {
			if err := s.applyCounter(ctx, rec, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyCounter adjusts one counter and removes auto-created brands and
// categories that no product references any more.
func (s *Service) applyCounter(ctx context.Context, rec Recorder, d CounterDelta) error {
	state, err := s.stores.Counters.AdjustCounter(ctx, d)
	if err != nil {
		return fmt.Errorf("adjust %s counter: %w", d.Kind, err)
	}

	action := "adjust"
	if d.Kind != CounterWarehouse && state.AutoCreated && state.TotalProducts <= 0 {
		action = "delete"
		if err := s.stores.Counters.DeleteCounter(ctx, d.Kind, state.ID); err != nil {
			return fmt.Errorf("delete empty %s: %w", d.Kind, err)
		}
	}

	return s.log(ctx, rec, EntityCounter, state.ID, action, map[string]any{
		"kind":          d.Kind,
		"name":          d.Name,
		"products":      d.Products,
		"stock":         d.Stock,
		"totalProducts": state.TotalProducts,
		"totalStock":    state.TotalStock,
	})
}

// RecalculateCounters rebuilds all counters from the product table under
// the recount lock. Running it twice without product writes in between
// yields the same totals.
func (s *Service) RecalculateCounters(ctx context.Context) (CounterTotals, error) {
	var totals CounterTotals
	err := s.withLock(ctx, LockRecount, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			totals, err = s.stores.Counters.RecalculateCounters(ctx)
			if err != nil {
				return fmt.Errorf("recalculate counters: %w", err)
			}
			return s.log(ctx, Recorder{Type: "maintenance"}, EntityCounter, id.Nil(), "recount", map[string]any{"totals": totals})
		})
	})
	if err != nil {
		return CounterTotals{}, err
	}

	logger.Info(ctx, "counters recalculated",
		"brands", totals.Brands,
		"categories", totals.Categories,
		"warehouses", totals.Warehouses)
	return totals, nil
}

// RefreshOverdue marks unpaid receivables due before now as Overdue.
func (s *Service) RefreshOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.withLock(ctx, LockOverdue, func(ctx context.Context) error {
		var err error
		n, err = s.stores.Receivables.MarkOverdue(ctx, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("refresh overdue receivables: %w", err)
	}
	if n > 0 {
		logger.Info(ctx, "receivables marked overdue", "count", n)
	}
	return n, nil
}

func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, key, jobLockTTL, fn)
}

func (s *Service) log(ctx context.Context, rec Recorder, entityType string, entityID id.ID, action string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	meta := map[string]any{"recorderType": rec.Type}
	if !id.IsNil(rec.ID) {
		meta["recorderId"] = rec.ID
	}
	if rec.Number != "" {
		meta["recorderNumber"] = rec.Number
	}
	if err := s.audit.LogChange(ctx, entityType, entityID, action, changes, meta); err != nil {
		return fmt.Errorf("audit %s: %w", entityType, err)
	}
	return nil
}
