package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCategory(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	res, err := storage.NewCategoryRepo(db, nil).Add(context.Background(), core.Category{Name: name})
	if err != nil {
		t.Fatalf("seed category %s: %v", name, err)
	}
	return res.ID
}

func seedSupplier(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	res, err := storage.NewSupplierRepo(db, nil).Add(context.Background(), core.Supplier{Name: name})
	if err != nil {
		t.Fatalf("seed supplier %s: %v", name, err)
	}
	return res.ID
}

func seedProduct(t *testing.T, db *sql.DB, name string, categoryID int64) int64 {
	t.Helper()

	res, err := storage.NewProductRepo(db, nil).Add(context.Background(), core.Product{Name: name, CategoryID: categoryID})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return res.ID
}

func seedExpense(t *testing.T, db *sql.DB, cents, productID, supplierID, createdAt int64) {
	t.Helper()

	_, err := storage.NewExpenseRepo(db, nil).Add(context.Background(), core.Expense{
		Amount:     core.Money{Cents: cents},
		ProductID:  productID,
		SupplierID: supplierID,
		CreatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
}

// waitFor drains emissions from ch until cond holds or the deadline
// passes. Conflating delivery means intermediate values may be skipped,
// so tests assert on the converged state, not on every step.
func waitFor[T any](t *testing.T, ch <-chan T, cond func(T) bool) T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for expected live value")
		}
	}
}
