package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
)

// LinkRepo manages the category-supplier association ("which suppliers
// sell groceries"). The write model is replace-the-set: callers pass the
// complete desired set of linked ids, never a delta.
type LinkRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewLinkRepo(db *sql.DB, changes *live.Notifier) *LinkRepo {
	return &LinkRepo{db: db, changes: changes}
}

// ReplaceSuppliersForCategory atomically swaps the category's linked
// suppliers for exactly the given set.
func (r *LinkRepo) ReplaceSuppliersForCategory(ctx context.Context, categoryID int64, supplierIDs []int64) error {
	return r.replace(ctx, "category_id", "supplier_id", categoryID, supplierIDs)
}

// ReplaceCategoriesForSupplier atomically swaps the supplier's linked
// categories for exactly the given set.
func (r *LinkRepo) ReplaceCategoriesForSupplier(ctx context.Context, supplierID int64, categoryIDs []int64) error {
	return r.replace(ctx, "supplier_id", "category_id", supplierID, categoryIDs)
}

func (r *LinkRepo) replace(ctx context.Context, ownCol, linkCol string, ownerID int64, linkedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace links begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM category_suppliers WHERE `+ownCol+` = ?;`, ownerID,
	); err != nil {
		return fmt.Errorf("replace links clear: %w", err)
	}

	for _, linkedID := range linkedIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_suppliers (`+ownCol+`, `+linkCol+`) VALUES (?, ?);`,
			ownerID, linkedID,
		); err != nil {
			return fmt.Errorf("replace links insert %d: %w", linkedID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace links commit: %w", err)
	}

	slog.InfoContext(ctx, "Association links replaced",
		"owner_column", ownCol, "owner_id", ownerID, "linked", len(linkedIDs))
	r.changes.MarkChanged(TableCategorySuppliers)
	return nil
}

// SuppliersForCategory lists the suppliers linked to a category.
func (r *LinkRepo) SuppliersForCategory(ctx context.Context, categoryID int64) ([]core.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.name
		 FROM category_suppliers cs
		 JOIN suppliers s ON s.id = cs.supplier_id
		 WHERE cs.category_id = ?
		 ORDER BY lower(s.name), s.id;`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("suppliers for category: %w", err)
	}
	defer rows.Close()

	suppliers := make([]core.Supplier, 0)
	for rows.Next() {
		var s core.Supplier
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan linked supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suppliers for category rows: %w", err)
	}
	return suppliers, nil
}

// CategoriesForSupplier lists the categories linked to a supplier.
func (r *LinkRepo) CategoriesForSupplier(ctx context.Context, supplierID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.icon, c.color
		 FROM category_suppliers cs
		 JOIN categories c ON c.id = cs.category_id
		 WHERE cs.supplier_id = ?
		 ORDER BY lower(c.name), c.id;`,
		supplierID,
	)
	if err != nil {
		return nil, fmt.Errorf("categories for supplier: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan linked category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("categories for supplier rows: %w", err)
	}
	return categories, nil
}
