package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
)

type ShoppingRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewShoppingRepo(db *sql.DB, changes *live.Notifier) *ShoppingRepo {
	return &ShoppingRepo{db: db, changes: changes}
}

// AddItem appends a planned item to a trip: purchased quantity starts at
// zero and the unit price unknown, whatever the caller passed.
func (r *ShoppingRepo) AddItem(ctx context.Context, item core.ShoppingListItem) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_list_items
		    (product_id, unit, planned_quantity, purchased_quantity, unit_price_cents, supplier_id, shopping_date)
		 VALUES (?, ?, ?, 0, NULL, ?, ?);`,
		item.ProductID, nullString(item.Unit), item.PlannedQuantity, item.SupplierID, item.ShoppingDate,
	)
	if err != nil {
		return 0, fmt.Errorf("add shopping item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add shopping item read id: %w", err)
	}

	slog.InfoContext(ctx, "Shopping item added",
		"id", id, "product_id", item.ProductID, "shopping_date", item.ShoppingDate)
	r.changes.MarkChanged(TableShoppingItems)
	return id, nil
}

// UpdateItem rewrites every mutable column of the item.
func (r *ShoppingRepo) UpdateItem(ctx context.Context, item core.ShoppingListItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	var price any
	if item.UnitPrice != nil {
		price = item.UnitPrice.Cents
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items
		 SET product_id = ?, unit = ?, planned_quantity = ?, purchased_quantity = ?,
		     unit_price_cents = ?, supplier_id = ?, shopping_date = ?
		 WHERE id = ?;`,
		item.ProductID, nullString(item.Unit), item.PlannedQuantity, item.PurchasedQuantity,
		price, item.SupplierID, item.ShoppingDate, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update shopping item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update shopping item rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableShoppingItems)
	return nil
}

// SetPurchase records what was actually bought. Either field can be
// updated on its own; a nil leaves that column untouched.
func (r *ShoppingRepo) SetPurchase(ctx context.Context, id int64, purchasedQty *float64, unitPriceCents *int64) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if purchasedQty != nil {
		if *purchasedQty < 0 {
			return core.ErrInvalidQuantity
		}
		sets = append(sets, "purchased_quantity = ?")
		args = append(args, *purchasedQty)
	}
	if unitPriceCents != nil {
		if *unitPriceCents <= 0 {
			return core.ErrInvalidAmount
		}
		sets = append(sets, "unit_price_cents = ?")
		args = append(args, *unitPriceCents)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET `+strings.Join(sets, ", ")+` WHERE id = ?;`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("set purchase: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set purchase rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableShoppingItems)
	return nil
}

// ResetItem clears the purchase state after conversion so the item can be
// bought again on a future trip without re-adding it.
func (r *ShoppingRepo) ResetItem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET purchased_quantity = 0, unit_price_cents = NULL WHERE id = ?;`,
		id,
	)
	if err != nil {
		return fmt.Errorf("reset shopping item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset shopping item rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableShoppingItems)
	return nil
}

func (r *ShoppingRepo) DeleteItem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shopping_list_items WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shopping item rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableShoppingItems)
	return nil
}

const shoppingColumns = `id, product_id, COALESCE(unit, ''), planned_quantity, purchased_quantity, unit_price_cents, supplier_id, shopping_date`

// ItemsForTrip lists one trip's items, the (supplier, shopping date) batch.
func (r *ShoppingRepo) ItemsForTrip(ctx context.Context, supplierID, shoppingDate int64) ([]core.ShoppingListItem, error) {
	return r.list(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_items
		 WHERE supplier_id = ? AND shopping_date = ? ORDER BY id;`,
		supplierID, shoppingDate,
	)
}

// List returns every shopping list item, newest trip first.
func (r *ShoppingRepo) List(ctx context.Context) ([]core.ShoppingListItem, error) {
	return r.list(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_items ORDER BY shopping_date DESC, id;`,
	)
}

func (r *ShoppingRepo) GetItem(ctx context.Context, id int64) (core.ShoppingListItem, error) {
	items, err := r.list(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_list_items WHERE id = ?;`, id,
	)
	if err != nil {
		return core.ShoppingListItem{}, err
	}
	if len(items) == 0 {
		return core.ShoppingListItem{}, core.ErrNotFound
	}
	return items[0], nil
}

// LatestTripDate returns the most recent shopping date recorded for the
// supplier; ok is false when the supplier has no items yet.
func (r *ShoppingRepo) LatestTripDate(ctx context.Context, supplierID int64) (int64, bool, error) {
	var latest sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(shopping_date) FROM shopping_list_items WHERE supplier_id = ?;`,
		supplierID,
	).Scan(&latest)
	if err != nil {
		return 0, false, fmt.Errorf("latest trip date: %w", err)
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return latest.Int64, true, nil
}

func (r *ShoppingRepo) list(ctx context.Context, query string, args ...any) ([]core.ShoppingListItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	items := make([]core.ShoppingListItem, 0)
	for rows.Next() {
		var (
			item     core.ShoppingListItem
			price    sql.NullInt64
			supplier sql.NullInt64
		)
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.Unit, &item.PlannedQuantity,
			&item.PurchasedQuantity, &price, &supplier, &item.ShoppingDate,
		); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		if price.Valid {
			item.UnitPrice = &core.Money{Cents: price.Int64}
		}
		if supplier.Valid {
			id := supplier.Int64
			item.SupplierID = &id
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shopping items rows: %w", err)
	}
	return items, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
