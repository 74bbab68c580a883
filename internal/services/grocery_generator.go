package services

import (
	"sort"
	"strings"
	"time"

	"spendwise/internal/core"

	"github.com/google/uuid"
)

type ingredientKey struct {
	name string
	unit string
}

// MergeIngredients combines the ingredients of several meal plans. Entries
// with the same name (case-insensitive) and unit have their quantities summed;
// the first non-zero price and non-empty category win. Output is sorted by
// category, then name.
func MergeIngredients(plans []core.MealPlan) []core.ShoppingItem {
	merged := make(map[ingredientKey]*core.ShoppingItem)
	var order []ingredientKey

	for _, plan := range plans {
		for _, ing := range plan.Ingredients {
			name := strings.TrimSpace(ing.Name)
			if name == "" {
				continue
			}
			qty := ing.Quantity
			if qty <= 0 {
				qty = 1
			}
			key := ingredientKey{name: strings.ToLower(name), unit: strings.ToLower(strings.TrimSpace(ing.Unit))}

			item, ok := merged[key]
			if !ok {
				item = &core.ShoppingItem{
					Name:     name,
					Unit:     strings.TrimSpace(ing.Unit),
					Category: ing.Category,
					Price:    ing.Price,
				}
				merged[key] = item
				order = append(order, key)
			}
			item.Quantity += qty
			if item.Price.Cents == 0 {
				item.Price = ing.Price
			}
			if item.Category == "" {
				item.Category = ing.Category
			}
		}
	}

	items := make([]core.ShoppingItem, 0, len(order))
	for _, key := range order {
		items = append(items, *merged[key])
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items
}

// BuildGeneratedList turns merged items into a shopping list and one grocery
// row per item, ready to be stored together.
func BuildGeneratedList(userID string, items []core.ShoppingItem, now time.Time) (core.ShoppingList, []core.Grocery) {
	list := core.ShoppingList{
		ID:        uuid.NewString(),
		UserID:    userID,
		Store:     "",
		Items:     items,
		TotalCost: core.ShoppingTotal(items),
		CreatedAt: now,
		UpdatedAt: now,
	}

	groceries := make([]core.Grocery, 0, len(items))
	for _, it := range items {
		groceries = append(groceries, core.Grocery{
			ID:             uuid.NewString(),
			UserID:         userID,
			ShoppingListID: list.ID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			Unit:           it.Unit,
			Category:       it.Category,
			Price:          it.Price,
			CreatedAt:      now,
		})
	}
	return list, groceries
}
