// Package ledgertest provides an in-memory implementation of the ledger
// stores for service tests.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
	"bizbook/internal/core/id"
	"bizbook/internal/domain"
	"bizbook/internal/domain/ledger"
)

type txKey struct{}

// Counter is a stored brand, category or warehouse counter.
type Counter struct {
	ID            id.ID
	Name          string
	TotalProducts int64
	TotalStock    int64
	AutoCreated   bool
}

// AuditEntry is one recorded LogChange call.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     string
	Changes    map[string]any
	Metadata   map[string]any
}

// Event is one recorded outbox Publish call.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

type state struct {
	products    map[id.ID]ledger.StockChange
	payables    map[id.ID]*ledger.Payable
	receivables map[id.ID]*ledger.Receivable
	cash        map[ledger.CashKey]*ledger.CashRecord
	brands      map[string]*Counter
	categories  map[string]*Counter
	warehouses  map[id.ID]*Counter
	movements   []entity.StockMovement
	audit       []AuditEntry
	events      []Event
}

// Store keeps every ledger table in maps. RunInTransaction serializes
// callers and restores the previous state when fn fails, so atomicity of
// a Sync can be asserted.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state

	// FailAudit makes LogChange fail when set.
	FailAudit error
}

// New creates an empty store.
func New() *Store {
	return &Store{st: state{
		products:    make(map[id.ID]ledger.StockChange),
		payables:    make(map[id.ID]*ledger.Payable),
		receivables: make(map[id.ID]*ledger.Receivable),
		cash:        make(map[ledger.CashKey]*ledger.CashRecord),
		brands:      make(map[string]*Counter),
		categories:  make(map[string]*Counter),
		warehouses:  make(map[id.ID]*Counter),
	}}
}

// Stores returns the store as every ledger repository.
func (s *Store) Stores() ledger.Stores {
	return ledger.Stores{Stock: s, Payables: s, Receivables: s, Cash: s, Counters: s}
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st state) clone() state {
	out := state{
		products:    make(map[id.ID]ledger.StockChange, len(st.products)),
		payables:    make(map[id.ID]*ledger.Payable, len(st.payables)),
		receivables: make(map[id.ID]*ledger.Receivable, len(st.receivables)),
		cash:        make(map[ledger.CashKey]*ledger.CashRecord, len(st.cash)),
		brands:      cloneCounters(st.brands),
		categories:  cloneCounters(st.categories),
		warehouses:  cloneCounters(st.warehouses),
		movements:   append([]entity.StockMovement(nil), st.movements...),
		audit:       append([]AuditEntry(nil), st.audit...),
		events:      append([]Event(nil), st.events...),
	}
	for k, v := range st.products {
		out.products[k] = v
	}
	for k, v := range st.payables {
		c := *v
		out.payables[k] = &c
	}
	for k, v := range st.receivables {
		c := *v
		out.receivables[k] = &c
	}
	for k, v := range st.cash {
		c := *v
		out.cash[k] = &c
	}
	return out
}

func cloneCounters[K comparable](in map[K]*Counter) map[K]*Counter {
	out := make(map[K]*Counter, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

// --- Fixtures ---

// AddWarehouse registers a warehouse counter.
func (s *Store) AddWarehouse(warehouseID id.ID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.warehouses[warehouseID] = &Counter{ID: warehouseID, Name: name}
}

// AddBrand registers a manually created brand.
func (s *Store) AddBrand(name string) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Counter{ID: id.New(), Name: name}
	s.st.brands[name] = c
	return c.ID
}

// PutProduct stores a product row without touching counters.
func (s *Store) PutProduct(p ledger.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = ledger.StockChange{
		ProductID:   p.ID,
		Brand:       p.Brand,
		Category:    p.Category,
		WarehouseID: p.WarehouseID,
		Stock:       p.Stock,
	}
}

// RemoveProduct deletes a product row.
func (s *Store) RemoveProduct(productID id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.products, productID)
}

// --- Inspection ---

// Stock returns the stock of a product.
func (s *Store) Stock(productID id.ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.products[productID].Stock
}

// Payable returns a copy of the supplier's payable or nil.
func (s *Store) Payable(supplierID id.ID) *ledger.Payable {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.payables[supplierID]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// Receivable returns a copy of the order's receivable or nil.
func (s *Store) Receivable(salesOrderID id.ID) *ledger.Receivable {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.receivables[salesOrderID]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

// Cash returns a copy of the cash row or nil.
func (s *Store) Cash(side ledger.Side, method ledger.Method, sourceID id.ID) *ledger.CashRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.cash[ledger.CashKey{Side: side, Method: method, SourceID: sourceID}]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// CashCount returns the number of cash rows across all ledgers.
func (s *Store) CashCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.cash)
}

// Brand returns a copy of the brand counter or nil.
func (s *Store) Brand(name string) *Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounter(s.st.brands[name])
}

// Category returns a copy of the category counter or nil.
func (s *Store) Category(name string) *Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounter(s.st.categories[name])
}

// Warehouse returns a copy of the warehouse counter or nil.
func (s *Store) Warehouse(warehouseID id.ID) *Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounter(s.st.warehouses[warehouseID])
}

func copyCounter(c *Counter) *Counter {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Movements returns the recorded stock movements.
func (s *Store) Movements() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StockMovement(nil), s.st.movements...)
}

// AuditEntries returns the recorded audit entries.
func (s *Store) AuditEntries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.st.audit...)
}

// Events returns the recorded outbox events.
func (s *Store) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.st.events...)
}

// --- ledger.AuditLog / ledger.EventOutbox ---

// LogChange implements ledger.AuditLog.
func (s *Store) LogChange(_ context.Context, entityType string, entityID id.ID, action string, changes, metadata map[string]any) error {
	if s.FailAudit != nil {
		return s.FailAudit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.audit = append(s.st.audit, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		Metadata:   metadata,
	})
	return nil
}

// Publish implements ledger.EventOutbox.
func (s *Store) Publish(_ context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.events = append(s.st.events, Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	})
	return nil
}

// --- ledger.StockRepository ---

// ApplyStockDelta implements ledger.StockRepository.
func (s *Store) ApplyStockDelta(_ context.Context, productID id.ID, delta int64) (ledger.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[productID]
	if !ok {
		return ledger.StockChange{}, apperror.NewNotFound("product", productID)
	}
	if p.Stock+delta < 0 {
		return ledger.StockChange{}, apperror.NewInsufficientStock(productID.String(), -delta, p.Stock)
	}
	p.Stock += delta
	s.st.products[productID] = p
	return p, nil
}

// RecordMovement implements ledger.StockRepository.
func (s *Store) RecordMovement(_ context.Context, m entity.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.movements = append(s.st.movements, m)
	return nil
}

// ListMovements implements ledger.StockRepository.
func (s *Store) ListMovements(_ context.Context, productID id.ID, filter domain.ListFilter) (domain.ListResult[entity.StockMovement], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []entity.StockMovement
	for _, m := range s.st.movements {
		if m.ProductID == productID {
			items = append(items, m)
		}
	}
	return page(items, filter), nil
}

// --- ledger.PayableRepository ---

// LockPayable implements ledger.PayableRepository.
func (s *Store) LockPayable(_ context.Context, seed *ledger.Payable) (*ledger.Payable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.payables[seed.SupplierID]
	if !ok {
		c := *seed
		for _, other := range s.st.payables {
			if other.InvoiceNumber == c.InvoiceNumber {
				c.InvoiceNumber = c.InvoiceNumber + "/" + c.SupplierID.String()[:8]
				break
			}
		}
		p = &c
		s.st.payables[seed.SupplierID] = p
	}
	c := *p
	return &c, nil
}

// UpdatePayable implements ledger.PayableRepository.
func (s *Store) UpdatePayable(_ context.Context, p *ledger.Payable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.st.payables[p.SupplierID]
	if !ok || stored.ID != p.ID {
		return apperror.NewNotFound("account payable", p.ID)
	}
	if stored.Version != p.Version {
		return apperror.NewConcurrentModification("account payable", p.ID)
	}
	p.Version++
	c := *p
	s.st.payables[p.SupplierID] = &c
	return nil
}

// DeletePayable implements ledger.PayableRepository.
func (s *Store) DeletePayable(_ context.Context, payableID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range s.st.payables {
		if p.ID == payableID {
			delete(s.st.payables, k)
			return nil
		}
	}
	return apperror.NewNotFound("account payable", payableID)
}

// GetPayable implements ledger.PayableRepository.
func (s *Store) GetPayable(_ context.Context, payableID id.ID) (*ledger.Payable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.st.payables {
		if p.ID == payableID {
			c := *p
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("account payable", payableID)
}

// GetPayableBySupplier implements ledger.PayableRepository.
func (s *Store) GetPayableBySupplier(_ context.Context, supplierID id.ID) (*ledger.Payable, error) {
	if p := s.Payable(supplierID); p != nil {
		return p, nil
	}
	return nil, apperror.NewNotFound("account payable", supplierID)
}

// ListPayables implements ledger.PayableRepository.
func (s *Store) ListPayables(_ context.Context, filter domain.ListFilter) (domain.ListResult[*ledger.Payable], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*ledger.Payable, 0, len(s.st.payables))
	for _, p := range s.st.payables {
		c := *p
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SupplierName < items[j].SupplierName })
	return page(items, filter), nil
}

// --- ledger.ReceivableRepository ---

// CreateReceivable implements ledger.ReceivableRepository.
func (s *Store) CreateReceivable(_ context.Context, r *ledger.Receivable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.receivables[r.SalesOrderID]; ok {
		return apperror.NewConflict("receivable already exists for the sales order")
	}
	c := *r
	s.st.receivables[r.SalesOrderID] = &c
	return nil
}

// LockReceivable implements ledger.ReceivableRepository.
func (s *Store) LockReceivable(_ context.Context, salesOrderID id.ID) (*ledger.Receivable, error) {
	if r := s.Receivable(salesOrderID); r != nil {
		return r, nil
	}
	return nil, apperror.NewNotFound("account receivable", salesOrderID)
}

// UpdateReceivable implements ledger.ReceivableRepository.
func (s *Store) UpdateReceivable(_ context.Context, r *ledger.Receivable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.st.receivables[r.SalesOrderID]
	if !ok {
		return apperror.NewNotFound("account receivable", r.ID)
	}
	if stored.Version != r.Version {
		return apperror.NewConcurrentModification("account receivable", r.ID)
	}
	r.Version++
	c := *r
	s.st.receivables[r.SalesOrderID] = &c
	return nil
}

// DeleteReceivable implements ledger.ReceivableRepository.
func (s *Store) DeleteReceivable(_ context.Context, salesOrderID id.ID) (id.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.receivables[salesOrderID]
	if !ok {
		return id.Nil(), apperror.NewNotFound("account receivable", salesOrderID)
	}
	delete(s.st.receivables, salesOrderID)
	return r.ID, nil
}

// GetReceivable implements ledger.ReceivableRepository.
func (s *Store) GetReceivable(_ context.Context, receivableID id.ID) (*ledger.Receivable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.receivables {
		if r.ID == receivableID {
			c := *r
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("account receivable", receivableID)
}

// ListReceivables implements ledger.ReceivableRepository.
func (s *Store) ListReceivables(_ context.Context, filter domain.ListFilter) (domain.ListResult[*ledger.Receivable], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*ledger.Receivable, 0, len(s.st.receivables))
	for _, r := range s.st.receivables {
		c := *r
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].InvoiceNumber < items[j].InvoiceNumber })
	return page(items, filter), nil
}

// MarkOverdue implements ledger.ReceivableRepository.
func (s *Store) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.st.receivables {
		if r.Status == ledger.ReceivablePending && !r.DueDate.IsZero() && r.DueDate.Before(now) {
			r.Status = ledger.ReceivableOverdue
			r.Version++
			n++
		}
	}
	return n, nil
}

// --- ledger.CashRepository ---

// ListCashBySource implements ledger.CashRepository.
func (s *Store) ListCashBySource(_ context.Context, side ledger.Side, sourceID id.ID) ([]*ledger.CashRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.CashRecord
	for _, method := range ledger.Methods {
		if c, ok := s.st.cash[ledger.CashKey{Side: side, Method: method, SourceID: sourceID}]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpsertCash implements ledger.CashRepository.
func (s *Store) UpsertCash(_ context.Context, c *ledger.CashRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	if existing, ok := s.st.cash[c.Key()]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
		cp.Version = existing.Version + 1
		c.ID = existing.ID
	}
	s.st.cash[c.Key()] = &cp
	return nil
}

// DeleteCash implements ledger.CashRepository.
func (s *Store) DeleteCash(_ context.Context, key ledger.CashKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.cash, key)
	return nil
}

// GetCash implements ledger.CashRepository.
func (s *Store) GetCash(_ context.Context, side ledger.Side, method ledger.Method, cashID id.ID) (*ledger.CashRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.st.cash {
		if k.Side == side && k.Method == method && c.ID == cashID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("cash ledger entry", cashID)
}

// ListCash implements ledger.CashRepository.
func (s *Store) ListCash(_ context.Context, side ledger.Side, method ledger.Method, filter domain.ListFilter) (domain.ListResult[*ledger.CashRecord], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*ledger.CashRecord
	for k, c := range s.st.cash {
		if k.Side == side && k.Method == method {
			cp := *c
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Reference < items[j].Reference })
	return page(items, filter), nil
}

// --- ledger.CounterRepository ---

// AdjustCounter implements ledger.CounterRepository.
func (s *Store) AdjustCounter(_ context.Context, d ledger.CounterDelta) (ledger.CounterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c *Counter
	switch d.Kind {
	case ledger.CounterWarehouse:
		c = s.st.warehouses[d.WarehouseID]
		if c == nil {
			return ledger.CounterState{}, apperror.NewNotFound("warehouse", d.WarehouseID)
		}
	case ledger.CounterBrand:
		c = named(s.st.brands, d.Name)
	case ledger.CounterCategory:
		c = named(s.st.categories, d.Name)
	}

	c.TotalProducts += d.Products
	c.TotalStock += d.Stock
	return ledger.CounterState{
		ID:            c.ID,
		TotalProducts: c.TotalProducts,
		TotalStock:    c.TotalStock,
		AutoCreated:   c.AutoCreated,
	}, nil
}

func named(m map[string]*Counter, name string) *Counter {
	c, ok := m[name]
	if !ok {
		c = &Counter{ID: id.New(), Name: name, AutoCreated: true}
		m[name] = c
	}
	return c
}

// DeleteCounter implements ledger.CounterRepository.
func (s *Store) DeleteCounter(_ context.Context, kind ledger.CounterKind, counterID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var m map[string]*Counter
	switch kind {
	case ledger.CounterBrand:
		m = s.st.brands
	case ledger.CounterCategory:
		m = s.st.categories
	default:
		return apperror.NewValidation("only brands and categories can be removed")
	}
	for name, c := range m {
		if c.ID == counterID {
			delete(m, name)
		}
	}
	return nil
}

// RecalculateCounters implements ledger.CounterRepository.
func (s *Store) RecalculateCounters(_ context.Context) (ledger.CounterTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range []map[string]*Counter{s.st.brands, s.st.categories} {
		for _, c := range m {
			c.TotalProducts, c.TotalStock = 0, 0
		}
	}
	for _, c := range s.st.warehouses {
		c.TotalProducts, c.TotalStock = 0, 0
	}

	var totals ledger.CounterTotals
	for _, p := range s.st.products {
		totals.Products++
		totals.Stock += p.Stock
		if p.Brand != "" {
			c := named(s.st.brands, p.Brand)
			c.TotalProducts++
			c.TotalStock += p.Stock
		}
		if p.Category != "" {
			c := named(s.st.categories, p.Category)
			c.TotalProducts++
			c.TotalStock += p.Stock
		}
		if c, ok := s.st.warehouses[p.WarehouseID]; ok {
			c.TotalProducts++
			c.TotalStock += p.Stock
		}
	}
	totals.Brands = int64(len(s.st.brands))
	totals.Categories = int64(len(s.st.categories))
	totals.Warehouses = int64(len(s.st.warehouses))
	return totals, nil
}

func page[T any](items []T, filter domain.ListFilter) domain.ListResult[T] {
	total := int64(len(items))
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			items = nil
		} else {
			items = items[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	if items == nil {
		items = []T{}
	}
	return domain.ListResult[T]{Items: items, TotalCount: total, Limit: filter.Limit, Offset: filter.Offset}
}

var (
	_ ledger.StockRepository      = (*Store)(nil)
	_ ledger.PayableRepository    = (*Store)(nil)
	_ ledger.ReceivableRepository = (*Store)(nil)
	_ ledger.CashRepository       = (*Store)(nil)
	_ ledger.CounterRepository    = (*Store)(nil)
	_ ledger.AuditLog             = (*Store)(nil)
	_ ledger.EventOutbox          = (*Store)(nil)
)
