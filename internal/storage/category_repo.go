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

type CategoryRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewCategoryRepo(db *sql.DB, changes *live.Notifier) *CategoryRepo {
	return &CategoryRepo{db: db, changes: changes}
}

// Add inserts a category, resolving name conflicts to the existing row
// instead of failing.
func (r *CategoryRepo) Add(ctx context.Context, c core.Category) (core.InsertResult, error) {
	if err := c.Validate(); err != nil {
		return core.InsertResult{}, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, icon, color) VALUES (?, ?, ?);`,
		c.Name, c.Icon, c.Color,
	)
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add category rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetByName(ctx, c.Name)
		if err != nil {
			return core.InsertResult{}, fmt.Errorf("resolve existing category: %w", err)
		}
		return core.InsertResult{ID: existing.ID, Created: false}, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add category read id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name)
	r.changes.MarkChanged(TableCategories)
	return core.InsertResult{ID: id, Created: true}, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?;`,
		c.Name, c.Icon, c.Color, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableCategories)
	return nil
}

// Delete removes a category. It refuses with ErrCategoryInUse while any
// product still references it; callers surface that to the user instead of
// letting the foreign key fail.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	count, err := r.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.ErrCategoryInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	r.changes.MarkChanged(TableCategories, TableCategorySuppliers)
	return nil
}

// GetByName is a case-sensitive equality lookup returning at most one row.
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, color FROM categories WHERE name = ?;`,
		name,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, color FROM categories WHERE id = ?;`,
		id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, color FROM categories ORDER BY lower(name), id;`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories rows: %w", err)
	}
	return categories, nil
}

// ProductCount returns how many products reference the category, the
// deletion-guard input.
func (r *CategoryRepo) ProductCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = ?;`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products in category: %w", err)
	}
	return count, nil
}
