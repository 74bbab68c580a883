package storage

import (
	"context"
	"database/sql"
)

const savingsGoalColumns = `id, user_id, goal_name, target_amount_cents, current_amount_cents, target_date, category, is_completed, created_at, updated_at`

func scanSavingsGoal(s interface{ Scan(...any) error }) (SavingsGoal, error) {
	var i SavingsGoal
	err := s.Scan(
		&i.ID,
		&i.UserID,
		&i.GoalName,
		&i.TargetAmountCents,
		&i.CurrentAmountCents,
		&i.TargetDate,
		&i.Category,
		&i.IsCompleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createSavingsGoal = `
INSERT INTO savings_goals (id, user_id, goal_name, target_amount_cents, current_amount_cents, target_date, category, is_completed, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?, 0, ?, ?)
RETURNING ` + savingsGoalColumns

type CreateSavingsGoalParams struct {
	ID                string
	UserID            string
	GoalName          string
	TargetAmountCents int64
	TargetDate        string
	Category          sql.NullString
	CreatedAt         string
}

func (q *Queries) CreateSavingsGoal(ctx context.Context, arg CreateSavingsGoalParams) (SavingsGoal, error) {
	row := q.db.QueryRowContext(ctx, createSavingsGoal,
		arg.ID,
		arg.UserID,
		arg.GoalName,
		arg.TargetAmountCents,
		arg.TargetDate,
		arg.Category,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanSavingsGoal(row)
}

const listSavingsGoals = `
SELECT ` + savingsGoalColumns + ` FROM savings_goals
WHERE user_id = ?
ORDER BY is_completed ASC, target_date ASC, created_at DESC
`

func (q *Queries) ListSavingsGoals(ctx context.Context, userID string) ([]SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx, listSavingsGoals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SavingsGoal
	for rows.Next() {
		i, err := scanSavingsGoal(rows)
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

const getSavingsGoal = `
SELECT ` + savingsGoalColumns + ` FROM savings_goals WHERE id = ? AND user_id = ?
`

type GetSavingsGoalParams struct {
	ID     string
	UserID string
}

func (q *Queries) GetSavingsGoal(ctx context.Context, arg GetSavingsGoalParams) (SavingsGoal, error) {
	row := q.db.QueryRowContext(ctx, getSavingsGoal, arg.ID, arg.UserID)
	return scanSavingsGoal(row)
}

const updateSavingsGoalProgress = `
UPDATE savings_goals
SET current_amount_cents = ?, is_completed = ?, updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + savingsGoalColumns

type UpdateSavingsGoalProgressParams struct {
	CurrentAmountCents int64
	IsCompleted        bool
	UpdatedAt          string
	ID                 string
	UserID             string
}

func (q *Queries) UpdateSavingsGoalProgress(ctx context.Context, arg UpdateSavingsGoalProgressParams) (SavingsGoal, error) {
	row := q.db.QueryRowContext(ctx, updateSavingsGoalProgress,
		arg.CurrentAmountCents,
		arg.IsCompleted,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanSavingsGoal(row)
}

const deleteSavingsGoal = `
DELETE FROM savings_goals WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteSavingsGoal(ctx context.Context, arg GetSavingsGoalParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSavingsGoal, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
