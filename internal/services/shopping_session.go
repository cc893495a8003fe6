package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/storage"
)

// ErrNoActiveTrip is returned by trip-scoped operations before a
// supplier has been selected.
var ErrNoActiveTrip = errors.New("no active shopping trip")

// ShoppingSession drives one shopping trip: a supplier plus a trip date
// that groups the list items bought together. Selecting a supplier
// resumes that supplier's most recent trip when one exists.
type ShoppingSession struct {
	items    *storage.ShoppingRepo
	expenses *storage.ExpenseRepo
	now      func() time.Time

	supplierID int64
	tripDate   int64
	active     bool
}

func NewShoppingSession(items *storage.ShoppingRepo, expenses *storage.ExpenseRepo) *ShoppingSession {
	return &ShoppingSession{
		items:    items,
		expenses: expenses,
		now:      time.Now,
	}
}

// SelectSupplier makes supplierID's trip the active one: the latest
// recorded trip date for that supplier, or a fresh trip stamped now.
// It returns the trip date in effect.
func (s *ShoppingSession) SelectSupplier(ctx context.Context, supplierID int64) (int64, error) {
	date, ok, err := s.items.LatestTripDate(ctx, supplierID)
	if err != nil {
		return 0, err
	}
	if !ok {
		date = core.Millis(s.now())
	}

	s.supplierID = supplierID
	s.tripDate = date
	s.active = true
	return date, nil
}

// ActiveTrip returns the current supplier and trip date, if any.
func (s *ShoppingSession) ActiveTrip() (supplierID, tripDate int64, ok bool) {
	return s.supplierID, s.tripDate, s.active
}

// AddItem adds a planned item to the active trip. The item's supplier
// and trip date are stamped from the session.
func (s *ShoppingSession) AddItem(ctx context.Context, item core.ShoppingListItem) (int64, error) {
	if !s.active {
		return 0, ErrNoActiveTrip
	}
	supplierID := s.supplierID
	item.SupplierID = &supplierID
	item.ShoppingDate = s.tripDate
	return s.items.AddItem(ctx, item)
}

// SetPurchase records what was actually bought for one item.
func (s *ShoppingSession) SetPurchase(ctx context.Context, itemID int64, purchasedQty *float64, unitPriceCents *int64) error {
	return s.items.SetPurchase(ctx, itemID, purchasedQty, unitPriceCents)
}

// SetPurchaseInput records a purchase from the raw strings an input form
// provides. An empty string leaves that field unchanged; invalid input
// is rejected before anything is written.
func (s *ShoppingSession) SetPurchaseInput(ctx context.Context, itemID int64, quantity, unitPrice string) error {
	var qty *float64
	if strings.TrimSpace(quantity) != "" {
		q, err := core.ParseQuantity(quantity)
		if err != nil {
			return err
		}
		qty = &q
	}

	var price *int64
	if strings.TrimSpace(unitPrice) != "" {
		cents, err := core.ParseDecimalToCents(unitPrice)
		if err != nil {
			return err
		}
		price = &cents
	}

	return s.items.SetPurchase(ctx, itemID, qty, price)
}

// Items lists the active trip's items.
func (s *ShoppingSession) Items(ctx context.Context) ([]core.ShoppingListItem, error) {
	if !s.active {
		return nil, ErrNoActiveTrip
	}
	return s.items.ItemsForTrip(ctx, s.supplierID, s.tripDate)
}

// RecordPurchases converts every purchasable item of the active trip
// into an expense and resets the item back to planned. Items without a
// purchased quantity or price are skipped silently. Conversions are
// independent: a failure on one item is logged and the loop continues,
// so a partial run leaves every successfully converted item reset and
// the rest untouched. Returns the number of expenses created.
func (s *ShoppingSession) RecordPurchases(ctx context.Context) (int, error) {
	if !s.active {
		return 0, ErrNoActiveTrip
	}

	items, err := s.items.ItemsForTrip(ctx, s.supplierID, s.tripDate)
	if err != nil {
		return 0, err
	}

	created := 0
	now := core.Millis(s.now())
	for _, item := range items {
		if !item.Purchasable() {
			continue
		}
		amount := int64(math.Round(item.PurchasedQuantity * float64(item.UnitPrice.Cents)))
		_, err := s.expenses.Add(ctx, core.Expense{
			Amount:     core.Money{Cents: amount},
			ProductID:  item.ProductID,
			SupplierID: s.supplierID,
			CreatedAt:  now,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to convert shopping item",
				"item_id", item.ID, "product_id", item.ProductID, "error", err)
			continue
		}
		if err := s.items.ResetItem(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to reset shopping item after conversion",
				"item_id", item.ID, "error", err)
		}
		created++
	}

	slog.InfoContext(ctx, "Shopping trip recorded",
		"supplier_id", s.supplierID, "trip_date", s.tripDate, "expenses_created", created)
	return created, nil
}
