package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Category groups products for reporting. Icon and Color are optional
	// presentation tags stored alongside the name.
	Category struct {
		ID    int64
		Name  string
		Icon  string
		Color string
	}

	Supplier struct {
		ID   int64
		Name string
	}

	// Product always belongs to exactly one category.
	Product struct {
		ID         int64
		Name       string
		CategoryID int64
	}

	// Expense is one recorded purchase. CreatedAt is epoch milliseconds and
	// defaults to insertion time when zero.
	Expense struct {
		ID         int64
		Amount     Money
		ProductID  int64
		SupplierID int64
		CreatedAt  int64
	}

	// ShoppingListItem is a planned purchase. PurchasedQuantity stays 0 and
	// UnitPrice nil until the user records a purchase; only then does the item
	// qualify for conversion into an expense. SupplierID together with
	// ShoppingDate identifies the trip the item belongs to.
	ShoppingListItem struct {
		ID                int64
		ProductID         int64
		Unit              string
		PlannedQuantity   float64
		PurchasedQuantity float64
		UnitPrice         *Money
		SupplierID        *int64
		ShoppingDate      int64
	}

	// ExpenseDetail is an expense row joined with its product, category and
	// supplier, the shape the history list renders.
	ExpenseDetail struct {
		Expense
		ProductName  string
		CategoryID   int64
		CategoryName string
		SupplierName string
	}

	// InsertResult reports whether an insert created a new row or resolved to
	// an existing one with the same name.
	InsertResult struct {
		ID      int64
		Created bool
	}

	// ExpenseFilter narrows expense queries. A nil field means no constraint
	// on that dimension. Start and End are inclusive epoch-millisecond bounds.
	ExpenseFilter struct {
		Start      *int64
		End        *int64
		CategoryID *int64
		SupplierID *int64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyName       = errors.New("empty name")
	ErrNotFound        = errors.New("not found")
	ErrCategoryInUse   = errors.New("category has products")
	ErrProductInUse    = errors.New("product has expenses")
	ErrSupplierInUse   = errors.New("supplier has expenses")
)

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (s Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.CategoryID <= 0 {
		return errors.New("product requires a category")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.ProductID <= 0 {
		return errors.New("expense requires a product")
	}
	if e.SupplierID <= 0 {
		return errors.New("expense requires a supplier")
	}
	return nil
}

func (i ShoppingListItem) Validate() error {
	if i.ProductID <= 0 {
		return errors.New("shopping item requires a product")
	}
	if i.PlannedQuantity < 0 || i.PurchasedQuantity < 0 {
		return ErrInvalidQuantity
	}
	if i.UnitPrice != nil {
		if err := i.UnitPrice.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Purchasable reports whether the item qualifies for conversion into an
// expense: a recorded quantity and a known unit price.
func (i ShoppingListItem) Purchasable() bool {
	return i.PurchasedQuantity > 0 && i.UnitPrice != nil
}

// Matches reports whether the expense detail satisfies the filter.
func (f ExpenseFilter) Matches(d ExpenseDetail) bool {
	if f.Start != nil && d.CreatedAt < *f.Start {
		return false
	}
	if f.End != nil && d.CreatedAt > *f.End {
		return false
	}
	if f.CategoryID != nil && d.CategoryID != *f.CategoryID {
		return false
	}
	if f.SupplierID != nil && d.SupplierID != *f.SupplierID {
		return false
	}
	return true
}

// Millis converts a time to the epoch-millisecond representation every
// timestamp column uses.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a stored timestamp back to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}
