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

type ProductRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewProductRepo(db *sql.DB, changes *live.Notifier) *ProductRepo {
	return &ProductRepo{db: db, changes: changes}
}

// Add inserts a product, resolving name conflicts to the existing row.
func (r *ProductRepo) Add(ctx context.Context, p core.Product) (core.InsertResult, error) {
	if err := p.Validate(); err != nil {
		return core.InsertResult{}, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO products (name, category_id) VALUES (?, ?);`,
		p.Name, p.CategoryID,
	)
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add product rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetByName(ctx, p.Name)
		if err != nil {
			return core.InsertResult{}, fmt.Errorf("resolve existing product: %w", err)
		}
		return core.InsertResult{ID: existing.ID, Created: false}, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("add product read id: %w", err)
	}

	slog.InfoContext(ctx, "Product created", "id", id, "name", p.Name, "category_id", p.CategoryID)
	r.changes.MarkChanged(TableProducts)
	return core.InsertResult{ID: id, Created: true}, nil
}

func (r *ProductRepo) Update(ctx context.Context, p core.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, category_id = ? WHERE id = ?;`,
		p.Name, p.CategoryID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableProducts)
	return nil
}

// Delete removes a product unless expenses still reference it.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	count, err := r.ExpenseCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.ErrProductInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Product deleted", "id", id)
	// Shopping list rows cascade with the product.
	r.changes.MarkChanged(TableProducts, TableShoppingItems)
	return nil
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (core.Product, error) {
	var p core.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, category_id FROM products WHERE name = ?;`, name,
	).Scan(&p.ID, &p.Name, &p.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Product{}, core.ErrNotFound
		}
		return core.Product{}, fmt.Errorf("get product by name: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]core.Product, error) {
	return r.list(ctx, `SELECT id, name, category_id FROM products ORDER BY lower(name), id;`)
}

func (r *ProductRepo) ListByCategory(ctx context.Context, categoryID int64) ([]core.Product, error) {
	return r.list(ctx,
		`SELECT id, name, category_id FROM products WHERE category_id = ? ORDER BY lower(name), id;`,
		categoryID,
	)
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]core.Product, 0)
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products rows: %w", err)
	}
	return products, nil
}

// ExpenseCount returns how many expenses reference the product.
func (r *ProductRepo) ExpenseCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE product_id = ?;`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses for product: %w", err)
	}
	return count, nil
}
