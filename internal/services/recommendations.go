package services

import (
	"fmt"
	"strings"

	"spendwise/internal/core"
)

type Recipe struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Difficulty  string   `json:"difficulty"`
	PrepTime    string   `json:"prepTime"`
	CookTime    string   `json:"cookTime"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
}

type Recommendations struct {
	HealthAndNutrition    []string `json:"healthAndNutrition"`
	FinancialOptimization []string `json:"financialOptimization"`
	ShoppingStrategy      []string `json:"shoppingStrategy"`
	RecipeSuggestions     []Recipe `json:"recipeSuggestions"`
}

// bulkThreshold is the list total above which buying in bulk is suggested first.
var bulkThreshold = core.Money{Cents: 10000}

// Recommend returns rule-based shopping advice for a list. A nil list gets
// the generic advice only.
func Recommend(list *core.ShoppingList) Recommendations {
	rec := Recommendations{
		HealthAndNutrition: []string{
			"Consider adding more leafy greens to your list",
			"Try to include a variety of colorful vegetables",
			"Look for whole grain options when available",
		},
		FinancialOptimization: []string{
			"Check for store brand alternatives",
			"Consider buying in bulk for frequently used items",
			"Look for items on sale or with coupons",
		},
		ShoppingStrategy: []string{
			"Group similar items together for efficient shopping",
			"Check store layout to minimize backtracking",
			"Consider shopping during off-peak hours",
		},
		RecipeSuggestions: []Recipe{
			{
				Title:       "Quick and Healthy Stir Fry",
				Description: "A nutritious meal using your shopping list items",
				Ingredients: []string{"2 cups mixed vegetables", "1 cup protein of choice", "2 tbsp cooking oil", "2 tbsp soy sauce"},
				Difficulty:  "Easy",
				PrepTime:    "15 minutes",
				CookTime:    "10 minutes",
				Source:      "bbcgoodfood.com",
				URL:         "https://www.bbcgoodfood.com/recipes/collection/stir-fry-recipes",
			},
			{
				Title:       "Simple Salad Bowl",
				Description: "A refreshing and customizable salad",
				Ingredients: []string{"4 cups mixed greens", "1 cup protein of choice", "1/4 cup nuts or seeds", "2 tbsp dressing"},
				Difficulty:  "Easy",
				PrepTime:    "10 minutes",
				CookTime:    "0 minutes",
				Source:      "allrecipes.com",
				URL:         "https://www.allrecipes.com/recipes/96/salad/",
			},
		},
	}

	if list == nil {
		return rec
	}

	total := list.TotalCost
	if total.Cents == 0 {
		total = core.ShoppingTotal(list.Items)
	}
	if total.Cents > bulkThreshold.Cents {
		rec.FinancialOptimization = append([]string{
			fmt.Sprintf("Your list totals %s; compare unit prices on the largest items first", total.Dollars()),
		}, rec.FinancialOptimization...)
	}
	if store := strings.TrimSpace(list.Store); store != "" {
		rec.ShoppingStrategy = append(rec.ShoppingStrategy,
			fmt.Sprintf("Check the %s app or flyer for this week's deals", store))
	}

	categories := map[string]bool{}
	for _, it := range list.Items {
		categories[strings.ToLower(it.Category)] = true
	}
	if len(list.Items) > 0 && !categories["produce"] && !categories["vegetables"] {
		rec.HealthAndNutrition = append([]string{"Your list has no fresh produce yet"}, rec.HealthAndNutrition...)
	}
	return rec
}
