// Package storage owns the local SQLite store: schema migrations, first-run
// seeding, and one repository per entity. Repositories translate CRUD and
// report queries into SQL; business rules live in the services layer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Table names, as reported to the live layer's change notifier.
const (
	TableCategories        = "categories"
	TableSuppliers         = "suppliers"
	TableProducts          = "products"
	TableExpenses          = "expenses"
	TableShoppingItems     = "shopping_list_items"
	TableCategorySuppliers = "category_suppliers"
)

// ExpenseTables is the set of tables a filtered expense query depends on.
var ExpenseTables = []string{TableExpenses, TableProducts, TableCategories, TableSuppliers}

// DefaultCategories is inserted on first run when the store is empty.
var DefaultCategories = []string{
	"Groceries",
	"Household",
	"Transport",
	"Health",
	"Clothing",
	"Leisure",
	"Utilities",
	"Other",
}

// Open opens (creating if needed) the SQLite database at dbPath, applies
// the required pragmas, runs pending migrations and seeds default
// categories on first run.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Connection-local pragmas stay consistent with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := SeedDefaultCategories(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	statements := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", stmt, err)
		}
	}

	return nil
}

// SeedDefaultCategories inserts the default category names when the table
// is empty. Reruns are no-ops.
func SeedDefaultCategories(ctx context.Context, db *sql.DB) error {
	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories;`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range DefaultCategories {
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?);`, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories", "count", len(DefaultCategories))
	return nil
}
