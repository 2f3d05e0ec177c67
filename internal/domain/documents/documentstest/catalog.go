package documentstest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/documents"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/ledger/ledgertest"
)

// Catalog holds the catalog rows documents reference. Product stock is
// read from the ledger store so it follows the synced state.
type Catalog struct {
	mu         sync.Mutex
	store      *ledgertest.Store
	customers  map[id.ID]*party.Party
	suppliers  map[id.ID]*party.Party
	products   map[id.ID]*product.Product
	warehouses map[id.ID]bool
}

// NewCatalog creates an empty catalog over store.
func NewCatalog(store *ledgertest.Store) *Catalog {
	return &Catalog{
		store:      store,
		customers:  make(map[id.ID]*party.Party),
		suppliers:  make(map[id.ID]*party.Party),
		products:   make(map[id.ID]*product.Product),
		warehouses: make(map[id.ID]bool),
	}
}

// AddCustomer registers a customer.
func (c *Catalog) AddCustomer(name string) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := party.New(name, name+"@example.com", "", "")
	c.customers[p.ID] = p
	return p.ID
}

// AddSupplier registers a supplier.
func (c *Catalog) AddSupplier(name string) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := party.New(name, name+"@example.com", "", "")
	c.suppliers[p.ID] = p
	return p.ID
}

// AddWarehouse registers a warehouse in the catalog and the ledger store.
func (c *Catalog) AddWarehouse(name string) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	warehouseID := id.New()
	c.warehouses[warehouseID] = true
	c.store.AddWarehouse(warehouseID, name)
	return warehouseID
}

// AddProduct registers a product with the given stock.
func (c *Catalog) AddProduct(code string, warehouseID id.ID, price string, stock int64) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := product.NewProduct(code, code)
	p.Price = decimal.RequireFromString(price)
	p.WarehouseID = warehouseID
	p.Brand = "Acme"
	p.Category = "Tools"
	c.products[p.ID] = p
	c.store.PutProduct(ledger.ProductSnapshot{
		ID:          p.ID,
		Brand:       p.Brand,
		Category:    p.Category,
		WarehouseID: warehouseID,
		Stock:       stock,
	})
	return p.ID
}

// References returns readers over the catalog.
func (c *Catalog) References() documents.References {
	return documents.References{
		Customers:  partyReader{c: c, kind: party.KindCustomer},
		Suppliers:  partyReader{c: c, kind: party.KindSupplier},
		Products:   productReader{c},
		Warehouses: warehouseChecker{c},
	}
}

type partyReader struct {
	c    *Catalog
	kind party.Kind
}

func (r partyReader) GetByID(_ context.Context, partyID id.ID) (*party.Party, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	m := r.c.customers
	if r.kind == party.KindSupplier {
		m = r.c.suppliers
	}
	p, ok := m[partyID]
	if !ok {
		return nil, apperror.NewNotFound(string(r.kind), partyID)
	}
	cp := *p
	return &cp, nil
}

type productReader struct{ c *Catalog }

func (r productReader) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	p, ok := r.c.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	cp.Stock = r.c.store.Stock(productID)
	return &cp, nil
}

type warehouseChecker struct{ c *Catalog }

func (w warehouseChecker) Exists(_ context.Context, warehouseID id.ID) (bool, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.warehouses[warehouseID], nil
}
