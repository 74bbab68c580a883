package storage

import (
	"context"
	"database/sql"
)

const expenseColumns = `id, user_id, amount_cents, description, category, custom_category_name, date, created_at`

func scanExpense(s interface{ Scan(...any) error }) (Expense, error) {
	var i Expense
	err := s.Scan(
		&i.ID,
		&i.UserID,
		&i.AmountCents,
		&i.Description,
		&i.Category,
		&i.CustomCategoryName,
		&i.Date,
		&i.CreatedAt,
	)
	return i, err
}

func scanExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExpense = `
INSERT INTO expenses (id, user_id, amount_cents, description, category, custom_category_name, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	ID                 string
	UserID             string
	AmountCents        int64
	Description        string
	Category           string
	CustomCategoryName sql.NullString
	Date               string
	CreatedAt          string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.ID,
		arg.UserID,
		arg.AmountCents,
		arg.Description,
		arg.Category,
		arg.CustomCategoryName,
		arg.Date,
		arg.CreatedAt,
	)
	return scanExpense(row)
}

const listExpensesByUser = `
SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ?
ORDER BY date DESC, created_at DESC
`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const listExpensesByUserInRange = `
SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ? AND date >= ? AND date < ?
ORDER BY date DESC, created_at DESC
`

type ListExpensesByUserInRangeParams struct {
	UserID string
	Start  string
	End    string
}

func (q *Queries) ListExpensesByUserInRange(ctx context.Context, arg ListExpensesByUserInRangeParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUserInRange, arg.UserID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const sumExpensesByUserInRange = `
SELECT CAST(COALESCE(SUM(amount_cents), 0) AS INTEGER) FROM expenses
WHERE user_id = ? AND date >= ? AND date < ?
`

func (q *Queries) SumExpensesByUserInRange(ctx context.Context, arg ListExpensesByUserInRangeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumExpensesByUserInRange, arg.UserID, arg.Start, arg.End)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const sumExpensesByCategory = `
SELECT category, CAST(SUM(amount_cents) AS INTEGER) AS total_cents FROM expenses
WHERE user_id = ? AND date >= ? AND date < ?
GROUP BY category
ORDER BY total_cents DESC, category ASC
`

func (q *Queries) SumExpensesByCategory(ctx context.Context, arg ListExpensesByUserInRangeParams) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, sumExpensesByCategory, arg.UserID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var i CategorySum
		if err := rows.Scan(&i.Category, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteExpense = `
DELETE FROM expenses WHERE id = ? AND user_id = ?
`

type DeleteExpenseParams struct {
	ID     string
	UserID string
}

func (q *Queries) DeleteExpense(ctx context.Context, arg DeleteExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
