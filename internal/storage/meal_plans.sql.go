package storage

import (
	"context"
	"database/sql"
)

const mealPlanColumns = `id, user_id, date, meal_type, ingredients, created_at, updated_at`

func scanMealPlan(s interface{ Scan(...any) error }) (MealPlan, error) {
	var i MealPlan
	err := s.Scan(&i.ID, &i.UserID, &i.Date, &i.MealType, &i.Ingredients, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func scanMealPlans(rows *sql.Rows) ([]MealPlan, error) {
	defer rows.Close()
	var items []MealPlan
	for rows.Next() {
		i, err := scanMealPlan(rows)
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

const createMealPlan = `
INSERT INTO meal_plans (id, user_id, date, meal_type, ingredients, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mealPlanColumns

type CreateMealPlanParams struct {
	ID          string
	UserID      string
	Date        string
	MealType    string
	Ingredients string
	CreatedAt   string
}

func (q *Queries) CreateMealPlan(ctx context.Context, arg CreateMealPlanParams) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, createMealPlan,
		arg.ID,
		arg.UserID,
		arg.Date,
		arg.MealType,
		arg.Ingredients,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanMealPlan(row)
}

const listMealPlans = `
SELECT ` + mealPlanColumns + ` FROM meal_plans
WHERE user_id = ?
ORDER BY date ASC
`

func (q *Queries) ListMealPlans(ctx context.Context, userID string) ([]MealPlan, error) {
	rows, err := q.db.QueryContext(ctx, listMealPlans, userID)
	if err != nil {
		return nil, err
	}
	return scanMealPlans(rows)
}

const listMealPlansInRange = `
SELECT ` + mealPlanColumns + ` FROM meal_plans
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date ASC
`

type ListMealPlansInRangeParams struct {
	UserID string
	Start  string
	End    string
}

// ListMealPlansInRange is inclusive on both ends.
func (q *Queries) ListMealPlansInRange(ctx context.Context, arg ListMealPlansInRangeParams) ([]MealPlan, error) {
	rows, err := q.db.QueryContext(ctx, listMealPlansInRange, arg.UserID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return scanMealPlans(rows)
}

const getMealPlan = `
SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE id = ?
`

func (q *Queries) GetMealPlan(ctx context.Context, id string) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, getMealPlan, id)
	return scanMealPlan(row)
}

const getMealPlanBySlot = `
SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE user_id = ? AND date = ? AND meal_type = ?
`

type GetMealPlanBySlotParams struct {
	UserID   string
	Date     string
	MealType string
}

func (q *Queries) GetMealPlanBySlot(ctx context.Context, arg GetMealPlanBySlotParams) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, getMealPlanBySlot, arg.UserID, arg.Date, arg.MealType)
	return scanMealPlan(row)
}

const updateMealPlan = `
UPDATE meal_plans
SET date = ?, meal_type = ?, ingredients = ?, updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + mealPlanColumns

type UpdateMealPlanParams struct {
	Date        string
	MealType    string
	Ingredients string
	UpdatedAt   string
	ID          string
	UserID      string
}

func (q *Queries) UpdateMealPlan(ctx context.Context, arg UpdateMealPlanParams) (MealPlan, error) {
	row := q.db.QueryRowContext(ctx, updateMealPlan,
		arg.Date,
		arg.MealType,
		arg.Ingredients,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanMealPlan(row)
}
