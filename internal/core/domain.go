package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAcademic  Category = "academic"
	CategoryGroceries Category = "groceries"
	CategoryTransport Category = "transport"
	CategoryLeisure   Category = "leisure"
	CategoryRent      Category = "rent"
	CategoryOther     Category = "other"
)

// ExpenseCategories lists the accepted expense categories in display order.
var ExpenseCategories = []Category{
	CategoryAcademic,
	CategoryGroceries,
	CategoryTransport,
	CategoryLeisure,
	CategoryRent,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

type AlertType string

const (
	AlertBudgetWarning  AlertType = "budget_warning"
	AlertBudgetExceeded AlertType = "budget_exceeded"
)

type (
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	Expense struct {
		ID                 string    `json:"id"`
		UserID             string    `json:"userId"`
		Amount             Money     `json:"amount"`
		Description        string    `json:"description"`
		Category           Category  `json:"category"`
		CustomCategoryName string    `json:"customCategoryName,omitempty"`
		Date               time.Time `json:"date"`
		CreatedAt          time.Time `json:"createdAt"`
	}

	// CategoryTotal is one row of an expense summary.
	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
	}

	SavingsGoal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"userId"`
		GoalName      string    `json:"goalName"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		TargetDate    time.Time `json:"targetDate"`
		Category      string    `json:"category,omitempty"`
		IsCompleted   bool      `json:"isCompleted"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	Ingredient struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit,omitempty"`
		Category string  `json:"category,omitempty"`
		Price    Money   `json:"price"`
	}

	MealPlan struct {
		ID          string       `json:"id"`
		UserID      string       `json:"userId"`
		Date        time.Time    `json:"date"`
		MealType    string       `json:"mealType"`
		Ingredients []Ingredient `json:"ingredients"`
		CreatedAt   time.Time    `json:"createdAt"`
		UpdatedAt   time.Time    `json:"updatedAt"`
	}

	ShoppingItem struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity,omitempty"`
		Unit     string  `json:"unit,omitempty"`
		Category string  `json:"category,omitempty"`
		Price    Money   `json:"price"`
		Checked  bool    `json:"checked"`
	}

	ShoppingList struct {
		ID        string         `json:"id"`
		UserID    string         `json:"userId,omitempty"`
		Store     string         `json:"store"`
		Items     []ShoppingItem `json:"items"`
		TotalCost Money          `json:"totalCost"`
		CreatedAt time.Time      `json:"createdAt"`
		UpdatedAt time.Time      `json:"updatedAt"`
	}

	Grocery struct {
		ID             string    `json:"id"`
		UserID         string    `json:"userId"`
		ShoppingListID string    `json:"shoppingListId,omitempty"`
		Name           string    `json:"name"`
		Quantity       float64   `json:"quantity"`
		Unit           string    `json:"unit,omitempty"`
		Category       string    `json:"category,omitempty"`
		Price          Money     `json:"price"`
		Checked        bool      `json:"checked"`
		CreatedAt      time.Time `json:"createdAt"`
	}

	GroceryDay struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Date      time.Time `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
	}

	BudgetAlert struct {
		ID         string    `json:"id"`
		UserID     string    `json:"userId"`
		Type       AlertType `json:"type"`
		Message    string    `json:"message"`
		Amount     Money     `json:"amount"`
		Budget     Money     `json:"budget"`
		Percentage float64   `json:"percentage"`
		IsRead     bool      `json:"isRead"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	WeeklyDigest struct {
		ID                string           `json:"id"`
		UserID            string           `json:"userId"`
		WeekStart         time.Time        `json:"weekStart"`
		WeekEnd           time.Time        `json:"weekEnd"`
		TotalSpent        Money            `json:"totalSpent"`
		CategoryBreakdown map[string]Money `json:"categoryBreakdown"`
		Message           string           `json:"message"`
		CreatedAt         time.Time        `json:"createdAt"`
	}
)

var minAmount = decimal.New(1, -2)

// Validate checks a new expense. All problems are reported together.
func (e Expense) Validate() error {
	return e.validate(e.Amount.Cents >= 1)
}

// ValidateSubmitted is Validate with the amount checked as the client sent
// it, before rounding to cents, so 0.005 does not pass as 0.01.
func (e Expense) ValidateSubmitted(amount decimal.Decimal) error {
	return e.validate(amount.GreaterThanOrEqual(minAmount))
}

func (e Expense) validate(amountOK bool) error {
	var v validator
	v.check(amountOK, "amount", "Amount must be at least 0.01")
	v.check(strings.TrimSpace(e.Description) != "", "description", "Description is required")
	v.check(e.Category.Valid(), "category", "Category must be one of academic, groceries, transport, leisure, rent, other")
	if e.Category == CategoryOther {
		v.check(strings.TrimSpace(e.CustomCategoryName) != "", "customCategoryName", "Custom category name is required when category is 'other'")
	}
	v.check(!e.Date.IsZero(), "date", "Date must be a valid ISO 8601 datetime")
	return v.err()
}

// CategoryLabel is the key used when grouping expenses: the category, or for
// "other" the custom name, falling back to "Other".
func (e Expense) CategoryLabel() string {
	if e.Category != CategoryOther {
		return string(e.Category)
	}
	if name := strings.TrimSpace(e.CustomCategoryName); name != "" {
		return name
	}
	return "Other"
}

// Validate checks a new savings goal.
func (g SavingsGoal) Validate() error {
	var v validator
	v.check(strings.TrimSpace(g.GoalName) != "", "goalName", "Goal name is required")
	v.check(g.TargetAmount.Cents >= 1, "targetAmount", "Target amount must be at least 0.01")
	v.check(!g.TargetDate.IsZero(), "targetDate", "Target date must be a valid ISO 8601 datetime")
	return v.err()
}

// ApplyProgress sets the current amount. Completion follows the target
// unless the caller states it explicitly.
func (g *SavingsGoal) ApplyProgress(current Money, completed *bool) error {
	var v validator
	v.check(current.Cents >= 0, "currentAmount", "Current amount cannot be negative")
	if err := v.err(); err != nil {
		return err
	}
	g.CurrentAmount = current
	if completed != nil {
		g.IsCompleted = *completed
	} else {
		g.IsCompleted = current.Cents >= g.TargetAmount.Cents
	}
	return nil
}

// NormalizeMealType lower-cases and trims a meal type.
func NormalizeMealType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks a meal plan.
func (m MealPlan) Validate() error {
	var v validator
	v.check(!m.Date.IsZero(), "date", "Date is required")
	v.check(m.MealType != "", "mealType", "Meal type is required")
	for _, ing := range m.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			v.check(false, "ingredients", "Ingredient name is required")
			break
		}
	}
	return v.err()
}

// ShoppingTotal sums price times quantity. A missing quantity counts as one.
func ShoppingTotal(items []ShoppingItem) Money {
	var total Money
	for _, it := range items {
		q := it.Quantity
		if q <= 0 {
			q = 1
		}
		total = total.Add(it.Price.Times(q))
	}
	return total
}

// Validate checks a shopping list payload.
func (l ShoppingList) Validate() error {
	var v validator
	v.check(strings.TrimSpace(l.Store) != "", "store", "Store is required")
	v.checkItems(l.Items)
	return v.err()
}

// ValidateShoppingItems checks item names and amounts only.
func ValidateShoppingItems(items []ShoppingItem) error {
	var v validator
	v.checkItems(items)
	return v.err()
}

func (v *validator) checkItems(items []ShoppingItem) {
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			v.check(false, "items", "Item name is required")
			return
		}
		if it.Price.Cents < 0 || it.Quantity < 0 {
			v.check(false, "items", "Item price and quantity cannot be negative")
			return
		}
	}
}
