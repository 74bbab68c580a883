package storage

import "context"

const budgetAlertColumns = `id, user_id, type, message, amount_cents, budget_cents, percentage, is_read, created_at`

func scanBudgetAlert(s interface{ Scan(...any) error }) (BudgetAlert, error) {
	var i BudgetAlert
	err := s.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Message,
		&i.AmountCents,
		&i.BudgetCents,
		&i.Percentage,
		&i.IsRead,
		&i.CreatedAt,
	)
	return i, err
}

const createBudgetAlert = `
INSERT INTO budget_alerts (id, user_id, type, message, amount_cents, budget_cents, percentage, is_read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
RETURNING ` + budgetAlertColumns

type CreateBudgetAlertParams struct {
	ID          string
	UserID      string
	Type        string
	Message     string
	AmountCents int64
	BudgetCents int64
	Percentage  float64
	CreatedAt   string
}

func (q *Queries) CreateBudgetAlert(ctx context.Context, arg CreateBudgetAlertParams) (BudgetAlert, error) {
	row := q.db.QueryRowContext(ctx, createBudgetAlert,
		arg.ID,
		arg.UserID,
		arg.Type,
		arg.Message,
		arg.AmountCents,
		arg.BudgetCents,
		arg.Percentage,
		arg.CreatedAt,
	)
	return scanBudgetAlert(row)
}

const listBudgetAlerts = `
SELECT ` + budgetAlertColumns + ` FROM budget_alerts
WHERE user_id = ?
ORDER BY created_at DESC
`

func (q *Queries) ListBudgetAlerts(ctx context.Context, userID string) ([]BudgetAlert, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetAlerts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetAlert
	for rows.Next() {
		i, err := scanBudgetAlert(rows)
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

const getBudgetAlert = `
SELECT ` + budgetAlertColumns + ` FROM budget_alerts WHERE id = ?
`

func (q *Queries) GetBudgetAlert(ctx context.Context, id string) (BudgetAlert, error) {
	row := q.db.QueryRowContext(ctx, getBudgetAlert, id)
	return scanBudgetAlert(row)
}

const markBudgetAlertRead = `
UPDATE budget_alerts SET is_read = 1 WHERE id = ? AND user_id = ?
RETURNING ` + budgetAlertColumns

type MarkBudgetAlertReadParams struct {
	ID     string
	UserID string
}

func (q *Queries) MarkBudgetAlertRead(ctx context.Context, arg MarkBudgetAlertReadParams) (BudgetAlert, error) {
	row := q.db.QueryRowContext(ctx, markBudgetAlertRead, arg.ID, arg.UserID)
	return scanBudgetAlert(row)
}

const countUnreadBudgetAlerts = `
SELECT COUNT(*) FROM budget_alerts WHERE user_id = ? AND is_read = 0
`

func (q *Queries) CountUnreadBudgetAlerts(ctx context.Context, userID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUnreadBudgetAlerts, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
