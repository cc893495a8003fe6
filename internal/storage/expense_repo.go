package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
)

type ExpenseRepo struct {
	db      *sql.DB
	changes *live.Notifier
}

func NewExpenseRepo(db *sql.DB, changes *live.Notifier) *ExpenseRepo {
	return &ExpenseRepo{db: db, changes: changes}
}

// Add inserts an expense. A zero CreatedAt defaults to the current time.
func (r *ExpenseRepo) Add(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = core.Millis(time.Now())
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount_cents, product_id, supplier_id, created_at) VALUES (?, ?, ?, ?);`,
		e.Amount.Cents, e.ProductID, e.SupplierID, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add expense read id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"amount_cents", e.Amount.Cents,
		"product_id", e.ProductID,
		"supplier_id", e.SupplierID)

	r.changes.MarkChanged(TableExpenses)
	return id, nil
}

// Update rewrites amount, product, supplier and timestamp; the id is the
// immutable identity.
func (r *ExpenseRepo) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, product_id = ?, supplier_id = ?, created_at = ? WHERE id = ?;`,
		e.Amount.Cents, e.ProductID, e.SupplierID, e.CreatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableExpenses)
	return nil
}

// Delete is unrestricted; expenses are leaves in the reference tree.
func (r *ExpenseRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	r.changes.MarkChanged(TableExpenses)
	return nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, product_id, supplier_id, created_at FROM expenses WHERE id = ?;`,
		id,
	).Scan(&e.ID, &e.Amount.Cents, &e.ProductID, &e.SupplierID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// filterClause renders the optional filter dimensions into SQL. A nil
// field constrains nothing.
func filterClause(f core.ExpenseFilter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if f.Start != nil {
		conds = append(conds, "e.created_at >= ?")
		args = append(args, *f.Start)
	}
	if f.End != nil {
		conds = append(conds, "e.created_at <= ?")
		args = append(args, *f.End)
	}
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.SupplierID != nil {
		conds = append(conds, "e.supplier_id = ?")
		args = append(args, *f.SupplierID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const expenseJoin = `
FROM expenses e
JOIN products p ON p.id = e.product_id
JOIN categories c ON c.id = p.category_id
JOIN suppliers s ON s.id = e.supplier_id`

// Filtered returns the expenses matching the filter, newest first, joined
// with product, category and supplier names.
func (r *ExpenseRepo) Filtered(ctx context.Context, f core.ExpenseFilter) ([]core.ExpenseDetail, error) {
	where, args := filterClause(f)
	query := `SELECT e.id, e.amount_cents, e.product_id, e.supplier_id, e.created_at,
       p.name, p.category_id, c.name, s.name` +
		expenseJoin + where + `
ORDER BY e.created_at DESC, e.id DESC;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtered expenses: %w", err)
	}
	defer rows.Close()

	details := make([]core.ExpenseDetail, 0)
	for rows.Next() {
		var d core.ExpenseDetail
		if err := rows.Scan(
			&d.ID, &d.Amount.Cents, &d.ProductID, &d.SupplierID, &d.CreatedAt,
			&d.ProductName, &d.CategoryID, &d.CategoryName, &d.SupplierName,
		); err != nil {
			return nil, fmt.Errorf("scan expense detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filtered expenses rows: %w", err)
	}
	return details, nil
}

// FilteredTotal returns the cent sum over the same set Filtered returns,
// zero when nothing matches.
func (r *ExpenseRepo) FilteredTotal(ctx context.Context, f core.ExpenseFilter) (core.Money, error) {
	where, args := filterClause(f)
	query := `SELECT COALESCE(SUM(e.amount_cents), 0)` + expenseJoin + where + `;`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return core.Money{}, fmt.Errorf("filtered expense total: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// SpendingByCategory sums matching expenses per category, biggest first.
func (r *ExpenseRepo) SpendingByCategory(ctx context.Context, f core.ExpenseFilter) ([]core.CategorySpending, error) {
	where, args := filterClause(f)
	query := `SELECT c.id, c.name, SUM(e.amount_cents)` + expenseJoin + where + `
GROUP BY c.id, c.name
ORDER BY SUM(e.amount_cents) DESC, c.name;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	out := make([]core.CategorySpending, 0)
	for rows.Next() {
		var cs core.CategorySpending
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category spending: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spending by category rows: %w", err)
	}
	return out, nil
}

// SpendingBySupplier sums matching expenses per supplier, biggest first.
func (r *ExpenseRepo) SpendingBySupplier(ctx context.Context, f core.ExpenseFilter) ([]core.SupplierSpending, error) {
	where, args := filterClause(f)
	query := `SELECT s.id, s.name, SUM(e.amount_cents)` + expenseJoin + where + `
GROUP BY s.id, s.name
ORDER BY SUM(e.amount_cents) DESC, s.name;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spending by supplier: %w", err)
	}
	defer rows.Close()

	out := make([]core.SupplierSpending, 0)
	for rows.Next() {
		var ss core.SupplierSpending
		if err := rows.Scan(&ss.SupplierID, &ss.Name, &ss.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan supplier spending: %w", err)
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spending by supplier rows: %w", err)
	}
	return out, nil
}

// Trend buckets matching expenses by local calendar day, week or month and
// sums each bucket, oldest first.
func (r *ExpenseRepo) Trend(ctx context.Context, f core.ExpenseFilter, bucket core.TrendBucket) ([]core.TrendPoint, error) {
	var format string
	switch bucket {
	case core.BucketDay:
		format = "%Y-%m-%d"
	case core.BucketWeek:
		format = "%Y-%W"
	case core.BucketMonth:
		format = "%Y-%m"
	default:
		return nil, fmt.Errorf("unknown trend bucket %q", bucket)
	}

	where, args := filterClause(f)
	query := `SELECT strftime('` + format + `', e.created_at / 1000, 'unixepoch', 'localtime') AS bucket,
       SUM(e.amount_cents)` + expenseJoin + where + `
GROUP BY bucket
ORDER BY bucket;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense trend: %w", err)
	}
	defer rows.Close()

	points := make([]core.TrendPoint, 0)
	for rows.Next() {
		var p core.TrendPoint
		if err := rows.Scan(&p.Key, &p.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense trend rows: %w", err)
	}
	return points, nil
}

// ProductReport sums matching expenses per product and pairs the total
// with the single cheapest purchase and the supplier it came from.
// SQLite's bare-column semantics with MIN() pin the supplier name to the
// row holding the minimum amount.
func (r *ExpenseRepo) ProductReport(ctx context.Context, f core.ExpenseFilter) ([]core.ProductReportRow, error) {
	where, args := filterClause(f)
	query := `SELECT p.id, p.name, SUM(e.amount_cents), COUNT(e.id), MIN(e.amount_cents), s.name` +
		expenseJoin + where + `
GROUP BY p.id, p.name
ORDER BY SUM(e.amount_cents) DESC, p.name;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product report: %w", err)
	}
	defer rows.Close()

	out := make([]core.ProductReportRow, 0)
	for rows.Next() {
		var row core.ProductReportRow
		if err := rows.Scan(
			&row.ProductID, &row.Name, &row.Total.Cents,
			&row.TransactionCount, &row.LowestPrice.Cents, &row.LowestSupplier,
		); err != nil {
			return nil, fmt.Errorf("scan product report row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product report rows: %w", err)
	}
	return out, nil
}

// FirstExpenseAt returns the earliest expense timestamp ever recorded.
// ok is false when no expense exists yet.
func (r *ExpenseRepo) FirstExpenseAt(ctx context.Context) (int64, bool, error) {
	var first sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MIN(created_at) FROM expenses;`).Scan(&first); err != nil {
		return 0, false, fmt.Errorf("first expense timestamp: %w", err)
	}
	if !first.Valid {
		return 0, false, nil
	}
	return first.Int64, true, nil
}

// TotalAllTime returns the lifetime cent sum across every expense.
func (r *ExpenseRepo) TotalAllTime(ctx context.Context) (core.Money, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses;`).Scan(&total); err != nil {
		return core.Money{}, fmt.Errorf("total all time: %w", err)
	}
	return core.Money{Cents: total}, nil
}
