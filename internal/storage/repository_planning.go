package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spendwise/internal/core"
)

// Meal plans

func toMealPlan(m MealPlan) (core.MealPlan, error) {
	var ingredients []core.Ingredient
	if m.Ingredients != "" {
		if err := json.Unmarshal([]byte(m.Ingredients), &ingredients); err != nil {
			return core.MealPlan{}, fmt.Errorf("decode ingredients: %w", err)
		}
	}
	if ingredients == nil {
		ingredients = []core.Ingredient{}
	}
	return core.MealPlan{
		ID:          m.ID,
		UserID:      m.UserID,
		Date:        parseTS(m.Date),
		MealType:    m.MealType,
		Ingredients: ingredients,
		CreatedAt:   parseTS(m.CreatedAt),
		UpdatedAt:   parseTS(m.UpdatedAt),
	}, nil
}

func toMealPlans(rows []MealPlan) ([]core.MealPlan, error) {
	out := make([]core.MealPlan, 0, len(rows))
	for _, row := range rows {
		m, err := toMealPlan(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateMealPlan returns core.ErrConflict when the user already has a plan
// for the same date and meal type.
func (r *SQLiteRepository) CreateMealPlan(ctx context.Context, m core.MealPlan) (core.MealPlan, error) {
	ingredients, err := encodeJSON(nonNilIngredients(m.Ingredients))
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("encode ingredients: %w", err)
	}
	row, err := r.queries.CreateMealPlan(ctx, CreateMealPlanParams{
		ID:          m.ID,
		UserID:      m.UserID,
		Date:        ts(m.Date),
		MealType:    m.MealType,
		Ingredients: ingredients,
		CreatedAt:   ts(m.CreatedAt),
	})
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("create meal plan: %w", mapErr(err))
	}
	return toMealPlan(row)
}

// ListMealPlans returns plans ascending by date. Both bounds are inclusive
// and only applied when both are set.
func (r *SQLiteRepository) ListMealPlans(ctx context.Context, userID string, start, end time.Time) ([]core.MealPlan, error) {
	var (
		rows []MealPlan
		err  error
	)
	if start.IsZero() || end.IsZero() {
		rows, err = r.queries.ListMealPlans(ctx, userID)
	} else {
		rows, err = r.queries.ListMealPlansInRange(ctx, ListMealPlansInRangeParams{
			UserID: userID,
			Start:  ts(start),
			End:    ts(end),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	return toMealPlans(rows)
}

// GetMealPlan hides plans owned by other users behind core.ErrNotFound.
func (r *SQLiteRepository) GetMealPlan(ctx context.Context, userID, id string) (core.MealPlan, error) {
	row, err := r.queries.GetMealPlan(ctx, id)
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("get meal plan: %w", mapErr(err))
	}
	if row.UserID != userID {
		return core.MealPlan{}, fmt.Errorf("get meal plan: %w", core.ErrNotFound)
	}
	return toMealPlan(row)
}

func (r *SQLiteRepository) FindMealPlan(ctx context.Context, userID string, date time.Time, mealType string) (core.MealPlan, error) {
	row, err := r.queries.GetMealPlanBySlot(ctx, GetMealPlanBySlotParams{
		UserID:   userID,
		Date:     ts(date),
		MealType: mealType,
	})
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("find meal plan: %w", mapErr(err))
	}
	return toMealPlan(row)
}

func (r *SQLiteRepository) UpdateMealPlan(ctx context.Context, m core.MealPlan) (core.MealPlan, error) {
	ingredients, err := encodeJSON(nonNilIngredients(m.Ingredients))
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("encode ingredients: %w", err)
	}
	row, err := r.queries.UpdateMealPlan(ctx, UpdateMealPlanParams{
		Date:        ts(m.Date),
		MealType:    m.MealType,
		Ingredients: ingredients,
		UpdatedAt:   ts(m.UpdatedAt),
		ID:          m.ID,
		UserID:      m.UserID,
	})
	if err != nil {
		return core.MealPlan{}, fmt.Errorf("update meal plan: %w", mapErr(err))
	}
	return toMealPlan(row)
}

func nonNilIngredients(in []core.Ingredient) []core.Ingredient {
	if in == nil {
		return []core.Ingredient{}
	}
	return in
}

// Shopping lists

func toShoppingList(l ShoppingList) (core.ShoppingList, error) {
	var items []core.ShoppingItem
	if l.Items != "" {
		if err := json.Unmarshal([]byte(l.Items), &items); err != nil {
			return core.ShoppingList{}, fmt.Errorf("decode shopping items: %w", err)
		}
	}
	if items == nil {
		items = []core.ShoppingItem{}
	}
	return core.ShoppingList{
		ID:        l.ID,
		UserID:    l.UserID,
		Store:     l.Store,
		Items:     items,
		TotalCost: core.Money{Cents: l.TotalCostCents},
		CreatedAt: parseTS(l.CreatedAt),
		UpdatedAt: parseTS(l.UpdatedAt),
	}, nil
}

func shoppingItemsJSON(items []core.ShoppingItem) (string, error) {
	if items == nil {
		items = []core.ShoppingItem{}
	}
	s, err := encodeJSON(items)
	if err != nil {
		return "", fmt.Errorf("encode shopping items: %w", err)
	}
	return s, nil
}

func createShoppingListTx(ctx context.Context, q *Queries, l core.ShoppingList) (ShoppingList, error) {
	items, err := shoppingItemsJSON(l.Items)
	if err != nil {
		return ShoppingList{}, err
	}
	row, err := q.CreateShoppingList(ctx, CreateShoppingListParams{
		ID:             l.ID,
		UserID:         l.UserID,
		Store:          l.Store,
		Items:          items,
		TotalCostCents: l.TotalCost.Cents,
		CreatedAt:      ts(l.CreatedAt),
	})
	if err != nil {
		return ShoppingList{}, fmt.Errorf("create shopping list: %w", mapErr(err))
	}
	return row, nil
}

func (r *SQLiteRepository) CreateShoppingList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error) {
	row, err := createShoppingListTx(ctx, r.queries, l)
	if err != nil {
		return core.ShoppingList{}, err
	}
	return toShoppingList(row)
}

// LatestShoppingList returns core.ErrNotFound when the user has no list.
func (r *SQLiteRepository) LatestShoppingList(ctx context.Context, userID string) (core.ShoppingList, error) {
	row, err := r.queries.GetLatestShoppingList(ctx, userID)
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("latest shopping list: %w", mapErr(err))
	}
	return toShoppingList(row)
}

func (r *SQLiteRepository) UpdateShoppingList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error) {
	items, err := shoppingItemsJSON(l.Items)
	if err != nil {
		return core.ShoppingList{}, err
	}
	row, err := r.queries.UpdateShoppingList(ctx, UpdateShoppingListParams{
		Store:          l.Store,
		Items:          items,
		TotalCostCents: l.TotalCost.Cents,
		UpdatedAt:      ts(l.UpdatedAt),
		ID:             l.ID,
		UserID:         l.UserID,
	})
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("update shopping list: %w", mapErr(err))
	}
	return toShoppingList(row)
}

// DeleteShoppingList removes the list and its grocery rows together.
func (r *SQLiteRepository) DeleteShoppingList(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(q *Queries) error {
		params := GetShoppingListParams{ID: id, UserID: userID}
		if _, err := q.GetShoppingList(ctx, params); err != nil {
			return fmt.Errorf("delete shopping list: %w", mapErr(err))
		}
		if err := q.DeleteGroceriesByList(ctx, params); err != nil {
			return fmt.Errorf("delete groceries of list: %w", err)
		}
		if err := affected(q.DeleteShoppingList(ctx, params)); err != nil {
			return fmt.Errorf("delete shopping list: %w", err)
		}
		return nil
	})
}

// SaveGeneratedList stores a shopping list and one grocery row per item in a
// single transaction.
func (r *SQLiteRepository) SaveGeneratedList(ctx context.Context, l core.ShoppingList, groceries []core.Grocery) (core.ShoppingList, error) {
	var row ShoppingList
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = createShoppingListTx(ctx, q, l)
		if err != nil {
			return err
		}
		for _, g := range groceries {
			g.ShoppingListID = row.ID
			if _, err := createGroceryTx(ctx, q, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.ShoppingList{}, err
	}
	return toShoppingList(row)
}

// Groceries

func toGrocery(g Grocery) core.Grocery {
	return core.Grocery{
		ID:             g.ID,
		UserID:         g.UserID,
		ShoppingListID: g.ShoppingListID.String,
		Name:           g.Name,
		Quantity:       g.Quantity,
		Unit:           g.Unit,
		Category:       g.Category,
		Price:          core.Money{Cents: g.PriceCents},
		Checked:        g.Checked,
		CreatedAt:      parseTS(g.CreatedAt),
	}
}

func createGroceryTx(ctx context.Context, q *Queries, g core.Grocery) (Grocery, error) {
	row, err := q.CreateGrocery(ctx, CreateGroceryParams{
		ID:             g.ID,
		UserID:         g.UserID,
		ShoppingListID: nullString(g.ShoppingListID),
		Name:           g.Name,
		Quantity:       g.Quantity,
		Unit:           g.Unit,
		Category:       g.Category,
		PriceCents:     g.Price.Cents,
		CreatedAt:      ts(g.CreatedAt),
	})
	if err != nil {
		return Grocery{}, fmt.Errorf("create grocery: %w", mapErr(err))
	}
	return row, nil
}

func (r *SQLiteRepository) CreateGrocery(ctx context.Context, g core.Grocery) (core.Grocery, error) {
	row, err := createGroceryTx(ctx, r.queries, g)
	if err != nil {
		return core.Grocery{}, err
	}
	return toGrocery(row), nil
}

// ListGroceries filters by shopping list when listID is not empty.
func (r *SQLiteRepository) ListGroceries(ctx context.Context, userID, listID string) ([]core.Grocery, error) {
	rows, err := r.queries.ListGroceries(ctx, ListGroceriesParams{UserID: userID, ShoppingListID: listID})
	if err != nil {
		return nil, fmt.Errorf("list groceries: %w", err)
	}
	out := make([]core.Grocery, len(rows))
	for i, g := range rows {
		out[i] = toGrocery(g)
	}
	return out, nil
}

func (r *SQLiteRepository) SetGroceryChecked(ctx context.Context, userID, id string, checked bool) (core.Grocery, error) {
	row, err := r.queries.UpdateGroceryChecked(ctx, UpdateGroceryCheckedParams{Checked: checked, ID: id, UserID: userID})
	if err != nil {
		return core.Grocery{}, fmt.Errorf("update grocery: %w", mapErr(err))
	}
	return toGrocery(row), nil
}

func (r *SQLiteRepository) DeleteGrocery(ctx context.Context, userID, id string) error {
	if err := affected(r.queries.DeleteGrocery(ctx, DeleteGroceryParams{ID: id, UserID: userID})); err != nil {
		return fmt.Errorf("delete grocery: %w", err)
	}
	return nil
}

// Grocery days

func (r *SQLiteRepository) CreateGroceryDay(ctx context.Context, d core.GroceryDay) (core.GroceryDay, error) {
	row, err := r.queries.CreateGroceryDay(ctx, CreateGroceryDayParams{
		ID:        d.ID,
		UserID:    d.UserID,
		Date:      ts(d.Date),
		CreatedAt: ts(d.CreatedAt),
	})
	if err != nil {
		return core.GroceryDay{}, fmt.Errorf("create grocery day: %w", mapErr(err))
	}
	return core.GroceryDay{ID: row.ID, UserID: row.UserID, Date: parseTS(row.Date), CreatedAt: parseTS(row.CreatedAt)}, nil
}

// LatestGroceryDay returns core.ErrNotFound when none was recorded.
func (r *SQLiteRepository) LatestGroceryDay(ctx context.Context, userID string) (core.GroceryDay, error) {
	row, err := r.queries.GetLatestGroceryDay(ctx, userID)
	if err != nil {
		return core.GroceryDay{}, fmt.Errorf("latest grocery day: %w", mapErr(err))
	}
	return core.GroceryDay{ID: row.ID, UserID: row.UserID, Date: parseTS(row.Date), CreatedAt: parseTS(row.CreatedAt)}, nil
}
