package storage

import (
	"context"
	"database/sql"
)

const shoppingListColumns = `id, user_id, store, items, total_cost_cents, created_at, updated_at`

func scanShoppingList(s interface{ Scan(...any) error }) (ShoppingList, error) {
	var i ShoppingList
	err := s.Scan(&i.ID, &i.UserID, &i.Store, &i.Items, &i.TotalCostCents, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createShoppingList = `
INSERT INTO shopping_lists (id, user_id, store, items, total_cost_cents, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + shoppingListColumns

type CreateShoppingListParams struct {
	ID             string
	UserID         string
	Store          string
	Items          string
	TotalCostCents int64
	CreatedAt      string
}

func (q *Queries) CreateShoppingList(ctx context.Context, arg CreateShoppingListParams) (ShoppingList, error) {
	row := q.db.QueryRowContext(ctx, createShoppingList,
		arg.ID,
		arg.UserID,
		arg.Store,
		arg.Items,
		arg.TotalCostCents,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanShoppingList(row)
}

const getLatestShoppingList = `
SELECT ` + shoppingListColumns + ` FROM shopping_lists
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestShoppingList(ctx context.Context, userID string) (ShoppingList, error) {
	row := q.db.QueryRowContext(ctx, getLatestShoppingList, userID)
	return scanShoppingList(row)
}

const getShoppingList = `
SELECT ` + shoppingListColumns + ` FROM shopping_lists WHERE id = ? AND user_id = ?
`

type GetShoppingListParams struct {
	ID     string
	UserID string
}

func (q *Queries) GetShoppingList(ctx context.Context, arg GetShoppingListParams) (ShoppingList, error) {
	row := q.db.QueryRowContext(ctx, getShoppingList, arg.ID, arg.UserID)
	return scanShoppingList(row)
}

const updateShoppingList = `
UPDATE shopping_lists
SET store = ?, items = ?, total_cost_cents = ?, updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING ` + shoppingListColumns

type UpdateShoppingListParams struct {
	Store          string
	Items          string
	TotalCostCents int64
	UpdatedAt      string
	ID             string
	UserID         string
}

func (q *Queries) UpdateShoppingList(ctx context.Context, arg UpdateShoppingListParams) (ShoppingList, error) {
	row := q.db.QueryRowContext(ctx, updateShoppingList,
		arg.Store,
		arg.Items,
		arg.TotalCostCents,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	return scanShoppingList(row)
}

const deleteShoppingList = `
DELETE FROM shopping_lists WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteShoppingList(ctx context.Context, arg GetShoppingListParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteShoppingList, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const groceryColumns = `id, user_id, shopping_list_id, name, quantity, unit, category, price_cents, checked, created_at`

func scanGrocery(s interface{ Scan(...any) error }) (Grocery, error) {
	var i Grocery
	err := s.Scan(
		&i.ID,
		&i.UserID,
		&i.ShoppingListID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.Category,
		&i.PriceCents,
		&i.Checked,
		&i.CreatedAt,
	)
	return i, err
}

const createGrocery = `
INSERT INTO groceries (id, user_id, shopping_list_id, name, quantity, unit, category, price_cents, checked, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
RETURNING ` + groceryColumns

type CreateGroceryParams struct {
	ID             string
	UserID         string
	ShoppingListID sql.NullString
	Name           string
	Quantity       float64
	Unit           string
	Category       string
	PriceCents     int64
	CreatedAt      string
}

func (q *Queries) CreateGrocery(ctx context.Context, arg CreateGroceryParams) (Grocery, error) {
	row := q.db.QueryRowContext(ctx, createGrocery,
		arg.ID,
		arg.UserID,
		arg.ShoppingListID,
		arg.Name,
		arg.Quantity,
		arg.Unit,
		arg.Category,
		arg.PriceCents,
		arg.CreatedAt,
	)
	return scanGrocery(row)
}

const listGroceries = `
SELECT ` + groceryColumns + ` FROM groceries
WHERE user_id = ? AND (? = '' OR shopping_list_id = ?)
ORDER BY created_at ASC, name ASC
`

type ListGroceriesParams struct {
	UserID         string
	ShoppingListID string
}

func (q *Queries) ListGroceries(ctx context.Context, arg ListGroceriesParams) ([]Grocery, error) {
	rows, err := q.db.QueryContext(ctx, listGroceries, arg.UserID, arg.ShoppingListID, arg.ShoppingListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Grocery
	for rows.Next() {
		i, err := scanGrocery(rows)
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

const updateGroceryChecked = `
UPDATE groceries SET checked = ? WHERE id = ? AND user_id = ?
RETURNING ` + groceryColumns

type UpdateGroceryCheckedParams struct {
	Checked bool
	ID      string
	UserID  string
}

func (q *Queries) UpdateGroceryChecked(ctx context.Context, arg UpdateGroceryCheckedParams) (Grocery, error) {
	row := q.db.QueryRowContext(ctx, updateGroceryChecked, arg.Checked, arg.ID, arg.UserID)
	return scanGrocery(row)
}

const deleteGrocery = `
DELETE FROM groceries WHERE id = ? AND user_id = ?
`

type DeleteGroceryParams struct {
	ID     string
	UserID string
}

func (q *Queries) DeleteGrocery(ctx context.Context, arg DeleteGroceryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGrocery, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGroceriesByList = `
DELETE FROM groceries WHERE shopping_list_id = ? AND user_id = ?
`

func (q *Queries) DeleteGroceriesByList(ctx context.Context, arg GetShoppingListParams) error {
	_, err := q.db.ExecContext(ctx, deleteGroceriesByList, arg.ID, arg.UserID)
	return err
}

const createGroceryDay = `
INSERT INTO grocery_days (id, user_id, date, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, date, created_at
`

type CreateGroceryDayParams struct {
	ID        string
	UserID    string
	Date      string
	CreatedAt string
}

func (q *Queries) CreateGroceryDay(ctx context.Context, arg CreateGroceryDayParams) (GroceryDay, error) {
	row := q.db.QueryRowContext(ctx, createGroceryDay, arg.ID, arg.UserID, arg.Date, arg.CreatedAt)
	var i GroceryDay
	err := row.Scan(&i.ID, &i.UserID, &i.Date, &i.CreatedAt)
	return i, err
}

const getLatestGroceryDay = `
SELECT id, user_id, date, created_at FROM grocery_days
WHERE user_id = ?
ORDER BY date DESC
LIMIT 1
`

func (q *Queries) GetLatestGroceryDay(ctx context.Context, userID string) (GroceryDay, error) {
	row := q.db.QueryRowContext(ctx, getLatestGroceryDay, userID)
	var i GroceryDay
	err := row.Scan(&i.ID, &i.UserID, &i.Date, &i.CreatedAt)
	return i, err
}
