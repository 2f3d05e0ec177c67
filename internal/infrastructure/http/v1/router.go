package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"bizbook/internal/core/numerator"
	"bizbook/internal/domain/auth"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/catalogs/productgroup"
	"bizbook/internal/domain/catalogs/warehouse"
	"bizbook/internal/domain/documents"
	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/email"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/domain/reports"
	"bizbook/internal/infrastructure/http/v1/handlers"
	"bizbook/internal/infrastructure/http/v1/middleware"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/internal/infrastructure/storage/postgres/catalog_repo"
	"bizbook/internal/infrastructure/storage/postgres/document_repo"
	"bizbook/internal/infrastructure/storage/postgres/email_repo"
	"bizbook/internal/infrastructure/storage/postgres/ledger_repo"
	"bizbook/internal/infrastructure/storage/postgres/report_repo"
	"bizbook/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger  *logger.Logger
	Version string

	// TxManager is shared by every repository and service.
	TxManager *postgres.TxManager
	Numerator numerator.Generator
	Audit     *postgres.AuditService
	Outbox    ledger.EventOutbox
	// Locker guards recount and overdue refresh.
	Locker ledger.Locker

	AuthService      *auth.Service
	IdempotencyStore middleware.IdempotencyStore
	// AuthLimiter guards signup and login. Nil disables the limit.
	AuthLimiter *limiter.Limiter

	Mailer          email.Sender
	ExpenseApprover expense.Approver
	Migrator        handlers.Migrator

	HealthChecks map[string]handlers.Pinger
	CORSOrigins  []string
	PhoneRegion  string
}

// services are built once per router and shared across route groups.
type services struct {
	ledger     *ledger.Service
	customers  *party.Service
	suppliers  *party.Service
	products   *product.Service
	warehouses *warehouse.Service
	brands     *productgroup.Service
	categories *productgroup.Service

	purchases       *purchase.Service
	salesOrders     *sales_order.Service
	purchaseReturns *returns.Service
	salesReturns    *returns.Service
	expenses        *expense.Service

	reports *reports.Service
	email   *email.Service
}

func newServices(cfg RouterConfig) *services {
	txm := cfg.TxManager

	var audit ledger.AuditLog
	if cfg.Audit != nil {
		audit = cfg.Audit
	}

	ledgerService := ledger.NewService(ledger.Config{
		Stores:    ledger_repo.NewStores(txm),
		TxManager: txm,
		Audit:     audit,
		Outbox:    cfg.Outbox,
		Locker:    cfg.Locker,
	})

	newParty := func(kind party.Kind, repo party.Repository) *party.Service {
		return party.NewService(party.Config{
			Kind:        kind,
			Repo:        repo,
			TxManager:   txm,
			Numerator:   cfg.Numerator,
			PhoneRegion: cfg.PhoneRegion,
		})
	}

	warehouseRepo := catalog_repo.NewWarehouseRepo(txm)
	s := &services{
		ledger:     ledgerService,
		customers:  newParty(party.KindCustomer, catalog_repo.NewCustomerRepo(txm)),
		suppliers:  newParty(party.KindSupplier, catalog_repo.NewSupplierRepo(txm)),
		warehouses: warehouse.NewService(warehouseRepo, txm, cfg.Numerator),
		brands:     productgroup.NewService(productgroup.KindBrand, catalog_repo.NewBrandRepo(txm), txm),
		categories: productgroup.NewService(productgroup.KindCategory, catalog_repo.NewCategoryRepo(txm), txm),
	}
	s.products = product.NewService(catalog_repo.NewProductRepo(txm), txm, warehouseRepo, ledgerService)

	refs := documents.References{
		Customers:  s.customers,
		Suppliers:  s.suppliers,
		Products:   s.products,
		Warehouses: warehouseRepo,
	}

	purchaseRepo := document_repo.NewPurchaseRepo(txm)
	salesOrderRepo := document_repo.NewSalesOrderRepo(txm)
	salesReturnRepo := document_repo.NewSalesReturnRepo(txm)
	purchaseReturnRepo := document_repo.NewPurchaseReturnRepo(txm)

	s.purchases = purchase.NewService(purchaseRepo, txm, cfg.Numerator, ledgerService, refs, purchaseReturnRepo)
	s.salesOrders = sales_order.NewService(salesOrderRepo, txm, cfg.Numerator, ledgerService, refs, salesReturnRepo)
	s.purchaseReturns = returns.NewService(returns.KindPurchase, purchaseReturnRepo,
		txm, cfg.Numerator, ledgerService, returns.PurchaseOrders(purchaseRepo))
	s.salesReturns = returns.NewService(returns.KindSales, salesReturnRepo,
		txm, cfg.Numerator, ledgerService, returns.SalesOrders(salesOrderRepo))
	s.expenses = expense.NewService(document_repo.NewExpenseRepo(txm), txm, cfg.Numerator, ledgerService, cfg.ExpenseApprover)

	s.reports = reports.NewService(report_repo.NewReportRepo(txm), txm)
	s.email = email.NewService(cfg.Mailer, email_repo.NewHistoryRepo(txm))

	return s
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)

	svc := newServices(cfg)
	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerCatalogRoutes(protected, base, svc)
		registerDocumentRoutes(protected, base, svc)
		registerLedgerRoutes(protected, base, svc, cfg)
		registerReportRoutes(protected, base, svc)
		registerAdminRoutes(protected, base, svc, cfg)
	}

	return router, nil
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.AuthLimiter != nil {
		limit = middleware.RateLimit(cfg.AuthLimiter)
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	publicAuth := rg.Group("/auth")
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.AuthService))

	authHandler.RegisterRoutes(publicAuth, protectedAuth, limit)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *services) {
	RegisterCatalogRoutes(rg.Group("/customers"), handlers.NewPartyHandler(base, svc.customers), "customers")
	RegisterCatalogRoutes(rg.Group("/suppliers"), handlers.NewPartyHandler(base, svc.suppliers), "suppliers")
	RegisterCatalogRoutes(rg.Group("/warehouses"), handlers.NewWarehouseHandler(base, svc.warehouses), "warehouses")
	RegisterCatalogRoutes(rg.Group("/brands"), handlers.NewGroupHandler(base, productgroup.KindBrand, svc.brands), "brands")
	RegisterCatalogRoutes(rg.Group("/categories"), handlers.NewGroupHandler(base, productgroup.KindCategory, svc.categories), "categories")

	products := rg.Group("/products")
	RegisterCatalogRoutes(products, handlers.NewProductHandler(base, svc.products), "products")

	ledgerHandler := handlers.NewLedgerHandler(base, svc.ledger, nil)
	products.GET("/:id/movements", permission("products", auth.ActionRead), ledgerHandler.ProductMovements)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *services) {
	RegisterDocumentRoutes(rg.Group("/purchases"), handlers.NewPurchaseHandler(base, svc.purchases), "purchases")
	RegisterDocumentRoutes(rg.Group("/sales-orders"), handlers.NewSalesOrderHandler(base, svc.salesOrders), "sales-orders")
	RegisterDocumentRoutes(rg.Group("/purchase-returns"), handlers.NewReturnHandler(base, svc.purchaseReturns), "purchase-returns")
	RegisterDocumentRoutes(rg.Group("/sales-returns"), handlers.NewReturnHandler(base, svc.salesReturns), "sales-returns")
	RegisterDocumentRoutes(rg.Group("/expenses"), handlers.NewExpenseHandler(base, svc.expenses), "expenses")
}

// registerLedgerRoutes registers the read-only derived ledgers.
func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *services, cfg RouterConfig) {
	var history handlers.HistoryReader
	if cfg.Audit != nil {
		history = cfg.Audit
	}
	h := handlers.NewLedgerHandler(base, svc.ledger, history)

	payables := rg.Group("/account-payable")
	payables.Use(permission("account-payable", auth.ActionRead))
	payables.GET("", h.ListPayables)
	payables.GET("/:id", h.GetPayable)
	payables.GET("/:id/history", h.PayableHistory)

	receivables := rg.Group("/account-receivable")
	receivables.Use(permission("account-receivable", auth.ActionRead))
	receivables.GET("", h.ListReceivables)
	receivables.GET("/:id", h.GetReceivable)
	receivables.GET("/:id/history", h.ReceivableHistory)

	for _, side := range []ledger.Side{ledger.SidePurchase, ledger.SideSales} {
		for _, method := range ledger.Methods {
			cash := rg.Group(fmt.Sprintf("/cash-in-%s-%s", method, side))
			cash.Use(permission("cash", auth.ActionRead))
			cash.GET("", h.ListCash(side, method))
			cash.GET("/:id", h.GetCash(side, method))
		}
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *services) {
	h := handlers.NewReportsHandler(base, svc.reports)

	r := rg.Group("/reports")
	read := permission("reports", auth.ActionRead)
	export := permission("reports", auth.ActionExport)

	r.GET("/profit-loss", read, h.ProfitLoss())
	r.GET("/sales", read, h.Sales())
	r.GET("/purchases", read, h.Purchases())
	r.GET("/expenses", read, h.Expenses())
	r.GET("/stock", read, h.Stock())
	r.GET("/balance-sheet", read, h.BalanceSheet)
	r.GET("/journal", read, h.Journal)

	r.GET("/profit-loss/export", export, h.ProfitLossExport())
	r.GET("/sales/export", export, h.SalesExport())
	r.GET("/purchases/export", export, h.PurchasesExport())
	r.GET("/expenses/export", export, h.ExpensesExport())
	r.GET("/stock/export", export, h.StockExport())
}

// registerAdminRoutes registers users, roles, email, barcode, migration and maintenance.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *services, cfg RouterConfig) {
	users := handlers.NewUsersHandler(base, cfg.AuthService)

	u := rg.Group("/users")
	u.GET("", permission("users", auth.ActionRead), users.ListUsers)
	u.POST("", permission("users", auth.ActionCreate), users.CreateUser)
	u.GET("/:id", permission("users", auth.ActionRead), users.GetUser)
	u.PUT("/:id", permission("users", auth.ActionUpdate), users.UpdateUser)
	u.DELETE("/:id", permission("users", auth.ActionDelete), users.DeleteUser)
	u.POST("/:id/roles", permission("users", auth.ActionUpdate), users.AssignRole)
	u.DELETE("/:id/roles/:code", permission("users", auth.ActionUpdate), users.RevokeRole)

	r := rg.Group("/roles")
	r.GET("", permission("roles", auth.ActionRead), users.ListRoles)
	r.POST("", permission("roles", auth.ActionCreate), users.CreateRole)
	r.GET("/:id", permission("roles", auth.ActionRead), users.GetRole)
	r.PUT("/:id", permission("roles", auth.ActionUpdate), users.UpdateRole)
	r.DELETE("/:id", permission("roles", auth.ActionDelete), users.DeleteRole)

	mail := handlers.NewEmailHandler(base, svc.email)
	e := rg.Group("/email")
	e.POST("", permission("email", auth.ActionCreate), mail.Send)
	e.GET("/history", permission("email", auth.ActionRead), mail.History)

	barcodes := handlers.NewBarcodeHandler(base, svc.products, svc.salesOrders)
	b := rg.Group("/barcode")
	b.Use(permission("barcode", auth.ActionRead))
	b.GET("/products/:id", barcodes.Product)
	b.GET("/sales-orders/:id", barcodes.SalesOrder)

	maintenance := handlers.NewMaintenanceHandler(base, cfg.Migrator, svc.ledger)
	if cfg.Migrator != nil {
		m := rg.Group("/migration")
		m.Use(middleware.RequireAdmin())
		m.GET("", maintenance.MigrationStatus)
		m.POST("/up", maintenance.MigrateUp)
	}

	mt := rg.Group("/maintenance")
	mt.Use(permission("maintenance", auth.ActionUpdate))
	mt.POST("/recount", maintenance.Recount)
	mt.POST("/overdue", maintenance.RefreshOverdue)
}
