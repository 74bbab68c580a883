package services

import (
	"strings"
	"testing"

	"spendwise/internal/core"
)

func TestRecommend(t *testing.T) {
	t.Run("no list", func(t *testing.T) {
		rec := Recommend(nil)
		if len(rec.HealthAndNutrition) != 3 || len(rec.FinancialOptimization) != 3 ||
			len(rec.ShoppingStrategy) != 3 || len(rec.RecipeSuggestions) != 2 {
			t.Errorf("Recommend(nil) = %+v", rec)
		}
	})

	t.Run("large list with store", func(t *testing.T) {
		rec := Recommend(&core.ShoppingList{
			Store: "Lidl",
			Items: []core.ShoppingItem{{Name: "steak", Quantity: 4, Category: "meat", Price: core.Money{Cents: 3000}}},
		})
		if !strings.Contains(rec.FinancialOptimization[0], "$120.00") {
			t.Errorf("expected total-based tip first, got %q", rec.FinancialOptimization[0])
		}
		if !strings.Contains(rec.ShoppingStrategy[len(rec.ShoppingStrategy)-1], "Lidl") {
			t.Errorf("expected store tip, got %v", rec.ShoppingStrategy)
		}
		if rec.HealthAndNutrition[0] != "Your list has no fresh produce yet" {
			t.Errorf("expected produce tip, got %v", rec.HealthAndNutrition)
		}
	})
}
