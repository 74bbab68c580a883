package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spendwise/internal/core"

	"github.com/google/uuid"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{
		ID:           uuid.NewString(),
		Name:         "Test",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func addExpense(t *testing.T, repo *SQLiteRepository, userID string, cents int64, cat core.Category, custom string, date time.Time) core.Expense {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), core.Expense{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Amount:             core.Money{Cents: cents},
		Description:        "test expense",
		Category:           cat,
		CustomCategoryName: custom,
		Date:               date,
		CreatedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	return e
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// second run is a no-op
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
	version, dirty, err := MigrationVersion(path)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("MigrationVersion() = %d, %v; want 1, false", version, dirty)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")

	got, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetUserByEmail() id = %v, want %v", got.ID, u.ID)
	}

	_, err = repo.CreateUser(ctx, core.User{ID: uuid.NewString(), Name: "Dup", Email: "ana@example.com", PasswordHash: "x", CreatedAt: time.Now()})
	if !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrConflict", err)
	}

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "s@example.com")
	now := time.Now()

	live := core.Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := core.Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	for _, s := range []core.Session{live, expired} {
		if err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	n, err := repo.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions() = %d, want 1", n)
	}

	got, err := repo.GetSession(ctx, live.Token)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("GetSession() user = %v, want %v", got.UserID, u.ID)
	}

	if err := repo.DeleteSession(ctx, live.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := repo.GetSession(ctx, live.Token); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
}

func TestExpenses_RangeAndSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "e@example.com")
	other := createTestUser(t, repo, "o@example.com")

	week := core.Week(time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))
	addExpense(t, repo, u.ID, 1000, core.CategoryGroceries, "", week.Start)
	addExpense(t, repo, u.ID, 250, core.CategoryGroceries, "", week.Start.Add(48*time.Hour))
	addExpense(t, repo, u.ID, 500, core.CategoryTransport, "", week.Last())
	addExpense(t, repo, u.ID, 9900, core.CategoryRent, "", week.End) // next week
	addExpense(t, repo, other.ID, 700, core.CategoryLeisure, "", week.Start)

	expenses, err := repo.ListExpenses(ctx, u.ID, week)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("ListExpenses() len = %d, want 3", len(expenses))
	}
	if !expenses[0].Date.Equal(week.Last()) {
		t.Errorf("ListExpenses() not newest first: %v", expenses[0].Date)
	}

	all, err := repo.ListExpenses(ctx, u.ID, core.Period{})
	if err != nil {
		t.Fatalf("ListExpenses(all) error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListExpenses(all) len = %d, want 4", len(all))
	}

	total, err := repo.SumExpenses(ctx, u.ID, week)
	if err != nil {
		t.Fatalf("SumExpenses() error = %v", err)
	}
	if total.Cents != 1750 {
		t.Errorf("SumExpenses() = %d, want 1750", total.Cents)
	}

	summary, err := repo.SummarizeExpenses(ctx, u.ID, week)
	if err != nil {
		t.Fatalf("SummarizeExpenses() error = %v", err)
	}
	want := []core.CategoryTotal{
		{Category: "groceries", Total: core.Money{Cents: 1250}},
		{Category: "transport", Total: core.Money{Cents: 500}},
	}
	if len(summary) != len(want) {
		t.Fatalf("SummarizeExpenses() = %+v, want %+v", summary, want)
	}
	for i := range want {
		if summary[i] != want[i] {
			t.Errorf("SummarizeExpenses()[%d] = %+v, want %+v", i, summary[i], want[i])
		}
	}

	empty, err := repo.SumExpenses(ctx, u.ID, core.Week(week.Start.AddDate(0, 0, -14)))
	if err != nil {
		t.Fatalf("SumExpenses(empty) error = %v", err)
	}
	if empty.Cents != 0 {
		t.Errorf("SumExpenses(empty) = %d, want 0", empty.Cents)
	}
}

func TestExpenses_DeleteOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "a@example.com")
	intruder := createTestUser(t, repo, "b@example.com")
	e := addExpense(t, repo, u.ID, 100, core.CategoryOther, "Books", time.Now())

	if err := repo.DeleteExpense(ctx, intruder.ID, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteExpense(other user) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(ctx, u.ID, e.ID); err != nil {
		t.Errorf("DeleteExpense(owner) error = %v", err)
	}
}

func TestSavingsGoals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "g@example.com")
	now := time.Now()

	g, err := repo.CreateSavingsGoal(ctx, core.SavingsGoal{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		GoalName:     "Laptop",
		TargetAmount: core.Money{Cents: 100000},
		TargetDate:   now.AddDate(0, 6, 0),
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateSavingsGoal() error = %v", err)
	}
	if g.CurrentAmount.Cents != 0 || g.IsCompleted {
		t.Errorf("new goal = %+v, want zero progress", g)
	}

	if err := g.ApplyProgress(core.Money{Cents: 100000}, nil); err != nil {
		t.Fatalf("ApplyProgress() error = %v", err)
	}
	g.UpdatedAt = now
	updated, err := repo.UpdateSavingsGoalProgress(ctx, g)
	if err != nil {
		t.Fatalf("UpdateSavingsGoalProgress() error = %v", err)
	}
	if !updated.IsCompleted {
		t.Error("goal at target should be completed")
	}

	if _, err := repo.GetSavingsGoal(ctx, "someone-else", g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSavingsGoal(other user) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteSavingsGoal(ctx, u.ID, g.ID); err != nil {
		t.Errorf("DeleteSavingsGoal() error = %v", err)
	}
	goals, err := repo.ListSavingsGoals(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListSavingsGoals() error = %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("ListSavingsGoals() len = %d, want 0", len(goals))
	}
}

func TestMealPlans(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "m@example.com")
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	plan := core.MealPlan{
		ID:       uuid.NewString(),
		UserID:   u.ID,
		Date:     day,
		MealType: "dinner",
		Ingredients: []core.Ingredient{
			{Name: "rice", Quantity: 2, Unit: "cup", Price: core.Money{Cents: 150}},
		},
		CreatedAt: time.Now(),
	}
	created, err := repo.CreateMealPlan(ctx, plan)
	if err != nil {
		t.Fatalf("CreateMealPlan() error = %v", err)
	}
	if len(created.Ingredients) != 1 || created.Ingredients[0].Price.Cents != 150 {
		t.Errorf("CreateMealPlan() ingredients = %+v", created.Ingredients)
	}

	plan.ID = uuid.NewString()
	if _, err := repo.CreateMealPlan(ctx, plan); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate CreateMealPlan() error = %v, want ErrConflict", err)
	}

	if _, err := repo.FindMealPlan(ctx, u.ID, day, "dinner"); err != nil {
		t.Errorf("FindMealPlan() error = %v", err)
	}

	inRange, err := repo.ListMealPlans(ctx, u.ID, day, day)
	if err != nil {
		t.Fatalf("ListMealPlans() error = %v", err)
	}
	if len(inRange) != 1 {
		t.Errorf("ListMealPlans(inclusive) len = %d, want 1", len(inRange))
	}

	if _, err := repo.GetMealPlan(ctx, "intruder", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetMealPlan(other user) error = %v, want ErrNotFound", err)
	}

	created.MealType = "lunch"
	created.Ingredients = nil
	created.UpdatedAt = time.Now()
	updated, err := repo.UpdateMealPlan(ctx, created)
	if err != nil {
		t.Fatalf("UpdateMealPlan() error = %v", err)
	}
	if updated.MealType != "lunch" || len(updated.Ingredients) != 0 {
		t.Errorf("UpdateMealPlan() = %+v", updated)
	}
}

func TestShoppingListLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "l@example.com")

	if _, err := repo.LatestShoppingList(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("LatestShoppingList(empty) error = %v, want ErrNotFound", err)
	}

	items := []core.ShoppingItem{{Name: "milk", Quantity: 2, Price: core.Money{Cents: 120}}}
	list, err := repo.SaveGeneratedList(ctx, core.ShoppingList{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Store:     "Generated",
		Items:     items,
		TotalCost: core.ShoppingTotal(items),
		CreatedAt: time.Now(),
	}, []core.Grocery{{ID: uuid.NewString(), UserID: u.ID, Name: "milk", Quantity: 2, Price: core.Money{Cents: 120}, CreatedAt: time.Now()}})
	if err != nil {
		t.Fatalf("SaveGeneratedList() error = %v", err)
	}
	if list.TotalCost.Cents != 240 {
		t.Errorf("TotalCost = %d, want 240", list.TotalCost.Cents)
	}

	groceries, err := repo.ListGroceries(ctx, u.ID, list.ID)
	if err != nil {
		t.Fatalf("ListGroceries() error = %v", err)
	}
	if len(groceries) != 1 {
		t.Fatalf("ListGroceries() len = %d, want 1", len(groceries))
	}

	checked, err := repo.SetGroceryChecked(ctx, u.ID, groceries[0].ID, true)
	if err != nil {
		t.Fatalf("SetGroceryChecked() error = %v", err)
	}
	if !checked.Checked {
		t.Error("grocery should be checked")
	}

	if err := repo.DeleteShoppingList(ctx, "intruder", list.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteShoppingList(other user) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteShoppingList(ctx, u.ID, list.ID); err != nil {
		t.Fatalf("DeleteShoppingList() error = %v", err)
	}
	groceries, err = repo.ListGroceries(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("ListGroceries() error = %v", err)
	}
	if len(groceries) != 0 {
		t.Errorf("groceries should be deleted with the list, got %d", len(groceries))
	}
}

func TestAlertsAndDigests(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createTestUser(t, repo, "d@example.com")

	alert, err := repo.CreateBudgetAlert(ctx, core.BudgetAlert{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		Type:       core.AlertBudgetWarning,
		Message:    "warning",
		Amount:     core.Money{Cents: 42000},
		Budget:     core.Money{Cents: 50000},
		Percentage: 84,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateBudgetAlert() error = %v", err)
	}

	if n, _ := repo.CountUnreadBudgetAlerts(ctx, u.ID); n != 1 {
		t.Errorf("CountUnreadBudgetAlerts() = %d, want 1", n)
	}
	if _, err := repo.MarkBudgetAlertRead(ctx, "intruder", alert.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MarkBudgetAlertRead(other user) error = %v, want ErrNotFound", err)
	}
	read, err := repo.MarkBudgetAlertRead(ctx, u.ID, alert.ID)
	if err != nil {
		t.Fatalf("MarkBudgetAlertRead() error = %v", err)
	}
	if !read.IsRead {
		t.Error("alert should be read")
	}

	week := core.PreviousWeek(time.Now())
	digest, err := repo.CreateWeeklyDigest(ctx, core.WeeklyDigest{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		WeekStart:  week.Start,
		WeekEnd:    week.Last(),
		TotalSpent: core.Money{Cents: 3050},
		CategoryBreakdown: map[string]core.Money{
			"groceries": {Cents: 3000},
			"Books":     {Cents: 50},
		},
		Message:   "You spent $30.50 this week.",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateWeeklyDigest() error = %v", err)
	}

	got, err := repo.GetWeeklyDigest(ctx, digest.ID)
	if err != nil {
		t.Fatalf("GetWeeklyDigest() error = %v", err)
	}
	if got.CategoryBreakdown["Books"].Cents != 50 {
		t.Errorf("breakdown = %+v", got.CategoryBreakdown)
	}
	if !got.WeekStart.Equal(week.Start.UTC()) {
		t.Errorf("WeekStart = %v, want %v", got.WeekStart, week.Start)
	}

	digests, err := repo.ListWeeklyDigests(ctx, u.ID, 5)
	if err != nil {
		t.Fatalf("ListWeeklyDigests() error = %v", err)
	}
	if len(digests) != 1 {
		t.Errorf("ListWeeklyDigests() len = %d, want 1", len(digests))
	}
}
