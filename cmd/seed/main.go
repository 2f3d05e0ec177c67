// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"bizbook/internal/core/id"
	"bizbook/internal/domain/catalogs/party"
	"bizbook/internal/domain/catalogs/product"
	"bizbook/internal/domain/catalogs/warehouse"
	"bizbook/internal/domain/ledger"
	"bizbook/internal/infrastructure/lock"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/internal/infrastructure/storage/postgres/catalog_repo"
	"bizbook/internal/infrastructure/storage/postgres/ledger_repo"
	"bizbook/pkg/logger"
	"bizbook/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@bizbook.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, email_verified, email_verified_at, version
		)
		VALUES ($1, $2, $3, 'System', 'Admin', true, true, true, $4, 1)
	`, userID, adminEmail, string(passwordHash), time.Now().UTC())
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE code = 'admin'
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID)
	if err != nil {
		log.Warnw("failed to assign admin role", "error", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

// seedDemoData goes through the domain services so numbering and counters
// are maintained exactly as over the API.
func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	txm := postgres.NewTxManager(pool)
	gen := numerator.NewWithQuerier(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})

	ledgerService := ledger.NewService(ledger.Config{
		Stores:    ledger_repo.NewStores(txm),
		TxManager: txm,
		Locker:    lock.NewLocalLocker(),
	})

	warehouseRepo := catalog_repo.NewWarehouseRepo(txm)
	warehouses := warehouse.NewService(warehouseRepo, txm, gen)
	products := product.NewService(catalog_repo.NewProductRepo(txm), txm, warehouseRepo, ledgerService)

	newParty := func(kind party.Kind, repo party.Repository) *party.Service {
		return party.NewService(party.Config{Kind: kind, Repo: repo, TxManager: txm, Numerator: gen, PhoneRegion: "US"})
	}
	customers := newParty(party.KindCustomer, catalog_repo.NewCustomerRepo(txm))
	suppliers := newParty(party.KindSupplier, catalog_repo.NewSupplierRepo(txm))

	mainWarehouse := warehouse.NewWarehouse("Main Warehouse", "12 Depot Road")
	if err := warehouses.Create(ctx, mainWarehouse); err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}

	for _, p := range []*party.Party{
		party.New("Acme Retail", "orders@acme-retail.example", "+1 202 555 0143", "1 Market St"),
		party.New("Blue Harbor Cafe", "hello@blueharbor.example", "+1 202 555 0178", "88 Pier Ave"),
	} {
		if err := customers.Create(ctx, p); err != nil {
			log.Warnw("failed to seed customer", "name", p.Name, "error", err)
		}
	}

	for _, p := range []*party.Party{
		party.New("Northwind Supplies", "sales@northwind.example", "+1 202 555 0111", "400 Industrial Pkwy"),
	} {
		if err := suppliers.Create(ctx, p); err != nil {
			log.Warnw("failed to seed supplier", "name", p.Name, "error", err)
		}
	}

	for _, seed := range []struct {
		code, name, brand, category, barcode string
		price                                string
		stock                                int64
	}{
		{"PAP-A4", "Office paper A4", "Navigator", "Paper", "4600000000001", "5.90", 120},
		{"PEN-BLU", "Ballpoint pen, blue", "Bic", "Writing", "4600000000002", "0.45", 500},
		{"STP-001", "Desk stapler", "Rapid", "Office tools", "4600000000003", "12.50", 40},
	} {
		p := product.NewProduct(seed.code, seed.name)
		p.Brand = seed.brand
		p.Category = seed.category
		p.Barcode = seed.barcode
		p.Price = decimal.RequireFromString(seed.price)
		p.Stock = seed.stock
		p.WarehouseID = mainWarehouse.ID
		if err := products.Create(ctx, p); err != nil {
			log.Warnw("failed to seed product", "product_id", seed.code, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}
