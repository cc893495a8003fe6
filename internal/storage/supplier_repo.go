package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
)

type SupplierRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewSupplierRepo(db *sql.DB, changes *live.Notifier) *SupplierRepo {
	return &SupplierRepo{db: db, changes: changes}
}

// Add inserts a supplier, resolving name conflicts to the existing row.
// Suppliers are routinely created inline from the expense entry form, so
// "already exists" is an expected outcome, not an error.
func (r *SupplierRepo) Add(ctx context.Context, s core.Supplier) (core.InsertResult, error) {
	if err := s.Validate(); err != nil {
		return core.InsertResult{}, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO suppliers (name) VALUES (?);`, s.Name,
	)
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add supplier: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add supplier rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetByName(ctx, s.Name)
		if err != nil {
			return core.InsertResult{}, fmt.Errorf("resolve existing supplier: %w", err)
		}
		return core.InsertResult{ID: existing.ID, Created: false}, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add supplier read id: %w", err)
	}

	slog.InfoContext(ctx, "Supplier created", "id", id, "name", s.Name)
	r.changes.MarkChanged(TableSuppliers)
	return core.InsertResult{ID: id, Created: true}, nil
}

func (r *SupplierRepo) Update(ctx context.Context, s core.Supplier) error {
	if err := s.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE suppliers SET name = ? WHERE id = ?;`, s.Name, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update supplier rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableSuppliers)
	return nil
}

// Delete removes a supplier that has no expenses. With expenses present it
// refuses with ErrSupplierInUse; removing those too is the explicitly
// separate DeleteCascading.
func (r *SupplierRepo) Delete(ctx context.Context, id int64) error {
	count, err := r.ExpenseCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.ErrSupplierInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete supplier rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Supplier deleted", "id", id)
	r.changes.MarkChanged(TableSuppliers, TableShoppingItems, TableCategorySuppliers)
	return nil
}

// DeleteCascading removes the supplier together with all its expenses, in
// one transaction. This is a distinct, explicitly chosen operation; the
// plain Delete never cascades.
func (r *SupplierRepo) DeleteCascading(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete supplier cascading begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	expResult, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE supplier_id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete supplier expenses: %w", err)
	}
	removed, err := expResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete supplier expenses rows affected: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete supplier row: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete supplier rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete supplier cascading commit: %w", err)
	}

	slog.InfoContext(ctx, "Supplier deleted with expenses", "id", id, "expenses_removed", removed)
	r.changes.MarkChanged(TableSuppliers, TableExpenses, TableShoppingItems, TableCategorySuppliers)
	return nil
}

func (r *SupplierRepo) GetByName(ctx context.Context, name string) (core.Supplier, error) {
	var s core.Supplier
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM suppliers WHERE name = ?;`, name,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Supplier{}, core.ErrNotFound
		}
		return core.Supplier{}, fmt.Errorf("get supplier by name: %w", err)
	}
	return s, nil
}

func (r *SupplierRepo) List(ctx context.Context) ([]core.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM suppliers ORDER BY lower(name), id;`,
	)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]core.Supplier, 0)
	for rows.Next() {
		var s core.Supplier
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suppliers rows: %w", err)
	}
	return suppliers, nil
}

// ExpenseCount returns how many expenses reference the supplier.
func (r *SupplierRepo) ExpenseCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE supplier_id = ?;`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses for supplier: %w", err)
	}
	return count, nil
}
