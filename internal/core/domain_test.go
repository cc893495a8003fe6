package core

import (
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{Amount: Money{Cents: 350}, ProductID: 1, SupplierID: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	t.Run("zero amount", func(t *testing.T) {
		e := valid
		e.Amount = Money{}
		if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		e := valid
		e.ProductID = 0
		if err := e.Validate(); err == nil {
			t.Fatal("expected error for missing product")
		}
	})

	t.Run("missing supplier", func(t *testing.T) {
		e := valid
		e.SupplierID = 0
		if err := e.Validate(); err == nil {
			t.Fatal("expected error for missing supplier")
		}
	})
}

func TestShoppingListItemPurchasable(t *testing.T) {
	item := ShoppingListItem{ProductID: 1, PlannedQuantity: 2}
	if item.Purchasable() {
		t.Fatal("planned-only item should not be purchasable")
	}

	item.PurchasedQuantity = 1.5
	if item.Purchasable() {
		t.Fatal("item without a price should not be purchasable")
	}

	item.UnitPrice = &Money{Cents: 199}
	if !item.Purchasable() {
		t.Fatal("item with quantity and price should be purchasable")
	}
}

func TestExpenseFilterMatches(t *testing.T) {
	detail := ExpenseDetail{
		Expense:    Expense{Amount: Money{Cents: 100}, ProductID: 1, SupplierID: 2, CreatedAt: 5000},
		CategoryID: 3,
	}

	i64 := func(v int64) *int64 { return &v }

	cases := []struct {
		name   string
		filter ExpenseFilter
		want   bool
	}{
		{"empty filter", ExpenseFilter{}, true},
		{"inside range", ExpenseFilter{Start: i64(4000), End: i64(6000)}, true},
		{"inclusive bounds", ExpenseFilter{Start: i64(5000), End: i64(5000)}, true},
		{"before start", ExpenseFilter{Start: i64(5001)}, false},
		{"after end", ExpenseFilter{End: i64(4999)}, false},
		{"category match", ExpenseFilter{CategoryID: i64(3)}, true},
		{"category mismatch", ExpenseFilter{CategoryID: i64(4)}, false},
		{"supplier match", ExpenseFilter{SupplierID: i64(2)}, true},
		{"supplier mismatch", ExpenseFilter{SupplierID: i64(9)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(detail); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
