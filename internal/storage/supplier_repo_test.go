package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
)

func TestSupplierRepoPlainDeleteIsGuarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSupplierRepo(db, nil)

	catID := mustCategory(t, db, "DeliCat")
	prodID := mustProduct(t, db, "Cheese", catID)
	supID := mustSupplier(t, db, "Deli")
	mustExpense(t, db, 500, prodID, supID, 1000)

	if err := repo.Delete(ctx, supID); !errors.Is(err, core.ErrSupplierInUse) {
		t.Fatalf("expected ErrSupplierInUse, got %v", err)
	}
	if _, err := repo.GetByName(ctx, "Deli"); err != nil {
		t.Fatalf("guarded delete must not remove the supplier: %v", err)
	}
}

func TestSupplierRepoDeleteCascadingRemovesExpenses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSupplierRepo(db, nil)
	expenses := NewExpenseRepo(db, nil)

	catID := mustCategory(t, db, "CascadeCat")
	prodID := mustProduct(t, db, "Bread", catID)
	supID := mustSupplier(t, db, "Bakery")
	otherSupID := mustSupplier(t, db, "OtherShop")

	expID := mustExpense(t, db, 350, prodID, supID, 1000)
	keptID := mustExpense(t, db, 700, prodID, otherSupID, 2000)

	if err := repo.DeleteCascading(ctx, supID); err != nil {
		t.Fatalf("cascading delete: %v", err)
	}

	if _, err := repo.GetByName(ctx, "Bakery"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("supplier should be gone, got %v", err)
	}
	if _, err := expenses.GetByID(ctx, expID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("supplier's expense should be gone, got %v", err)
	}
	if _, err := expenses.GetByID(ctx, keptID); err != nil {
		t.Fatalf("unrelated expense must survive: %v", err)
	}
}

func TestSupplierRepoDeleteCascadingNotFound(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	err := NewSupplierRepo(db, nil).DeleteCascading(context.Background(), 424242)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupplierRepoAddResolvesDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSupplierRepo(db, nil)

	first, err := repo.Add(ctx, core.Supplier{Name: "FreshMart"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := repo.Add(ctx, core.Supplier{Name: "FreshMart"})
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if second.Created || second.ID != first.ID {
		t.Fatalf("duplicate = %+v, want existing id %d with Created=false", second, first.ID)
	}
}

func TestSupplierDeleteNullifiesShoppingItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	catID := mustCategory(t, db, "NullCat")
	prodID := mustProduct(t, db, "Napkins", catID)
	supID := mustSupplier(t, db, "PaperCo")

	shopping := NewShoppingRepo(db, nil)
	itemID, err := shopping.AddItem(ctx, core.ShoppingListItem{
		ProductID:       prodID,
		PlannedQuantity: 1,
		SupplierID:      &supID,
		ShoppingDate:    5000,
	})
	if err != nil {
		t.Fatalf("add shopping item: %v", err)
	}

	if err := NewSupplierRepo(db, nil).Delete(ctx, supID); err != nil {
		t.Fatalf("delete supplier: %v", err)
	}

	item, err := shopping.GetItem(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.SupplierID != nil {
		t.Fatalf("supplier reference should be nullified, got %v", *item.SupplierID)
	}
}
