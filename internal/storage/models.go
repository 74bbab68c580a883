package storage

import "database/sql"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    string
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt string
	CreatedAt string
}

type Expense struct {
	ID                 string
	UserID             string
	AmountCents        int64
	Description        string
	Category           string
	CustomCategoryName sql.NullString
	Date               string
	CreatedAt          string
}

type SavingsGoal struct {
	ID                 string
	UserID             string
	GoalName           string
	TargetAmountCents  int64
	CurrentAmountCents int64
	TargetDate         string
	Category           sql.NullString
	IsCompleted        bool
	CreatedAt          string
	UpdatedAt          string
}

type MealPlan struct {
	ID          string
	UserID      string
	Date        string
	MealType    string
	Ingredients string
	CreatedAt   string
	UpdatedAt   string
}

type ShoppingList struct {
	ID             string
	UserID         string
	Store          string
	Items          string
	TotalCostCents int64
	CreatedAt      string
	UpdatedAt      string
}

type Grocery struct {
	ID             string
	UserID         string
	ShoppingListID sql.NullString
	Name           string
	Quantity       float64
	Unit           string
	Category       string
	PriceCents     int64
	Checked        bool
	CreatedAt      string
}

type GroceryDay struct {
	ID        string
	UserID    string
	Date      string
	CreatedAt string
}

type BudgetAlert struct {
	ID          string
	UserID      string
	Type        string
	Message     string
	AmountCents int64
	BudgetCents int64
	Percentage  float64
	IsRead      bool
	CreatedAt   string
}

type WeeklyDigest struct {
	ID                string
	UserID            string
	WeekStart         string
	WeekEnd           string
	TotalSpentCents   int64
	CategoryBreakdown string
	Message           string
	CreatedAt         string
}

type CategorySum struct {
	Category   string
	TotalCents int64
}
