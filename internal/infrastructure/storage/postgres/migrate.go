package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationStatus describes the schema version recorded by golang-migrate.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	// Applied is set by Up when at least one migration ran.
	Applied bool `json:"applied"`
}

// Migrator applies the SQL files under a directory with golang-migrate.
// Each call opens its own database/sql connection via the pgx stdlib driver.
type Migrator struct {
	dsn  string
	path string
}

// NewMigrator creates a migrator. path is a directory ("migrations") or a file:// URL.
func NewMigrator(dsn, path string) *Migrator {
	if !strings.Contains(path, "://") {
		path = "file://" + path
	}
	return &Migrator{dsn: dsn, path: path}
}

func (m *Migrator) open() (*migrate.Migrate, *sql.DB, error) {
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open migration connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping migration connection: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create migrate driver: %w", err)
	}

	mg, err := migrate.NewWithDatabaseInstance(m.path, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return mg, db, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up() (MigrationStatus, error) {
	mg, db, err := m.open()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer db.Close()
	defer mg.Close()

	applied := true
	if err := mg.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationStatus{}, fmt.Errorf("apply migrations: %w", err)
		}
		applied = false
	}

	status, err := version(mg)
	status.Applied = applied
	return status, err
}

// Status reports the current schema version.
func (m *Migrator) Status() (MigrationStatus, error) {
	mg, db, err := m.open()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer db.Close()
	defer mg.Close()

	return version(mg)
}

func version(mg *migrate.Migrate) (MigrationStatus, error) {
	v, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("read migration version: %w", err)
	}
	return MigrationStatus{Version: v, Dirty: dirty}, nil
}
