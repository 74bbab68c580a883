package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so that TEXT comparisons order like instants.
const timeLayout = "2006-01-02T15:04:05.000Z"

var (
	minTime = ""
	maxTime = "9999-12-31T23:59:59.999Z"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func ts(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTS(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapErr turns driver errors into the core sentinels callers switch on.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", core.ErrConflict, err)
		}
	}
	return err
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Users and sessions

func toUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    parseTS(u.CreatedAt),
	}
}

// CreateUser returns core.ErrConflict when the email is taken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    ts(u.CreatedAt),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", mapErr(err))
	}
	slog.InfoContext(ctx, "User created", "user_id", row.ID)
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", mapErr(err))
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", mapErr(err))
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, len(rows))
	for i, u := range rows {
		users[i] = toUser(u)
	}
	return users, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	err := r.queries.CreateSession(ctx, CreateSessionParams{
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: ts(s.ExpiresAt),
		CreatedAt: ts(s.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("create session: %w", mapErr(err))
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (core.Session, error) {
	row, err := r.queries.GetSession(ctx, token)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", mapErr(err))
	}
	return core.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: parseTS(row.ExpiresAt),
		CreatedAt: parseTS(row.CreatedAt),
	}, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.queries.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, ts(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// Expenses

func toExpense(e Expense) core.Expense {
	return core.Expense{
		ID:                 e.ID,
		UserID:             e.UserID,
		Amount:             core.Money{Cents: e.AmountCents},
		Description:        e.Description,
		Category:           core.Category(e.Category),
		CustomCategoryName: e.CustomCategoryName.String,
		Date:               parseTS(e.Date),
		CreatedAt:          parseTS(e.CreatedAt),
	}
}

func toExpenses(rows []Expense) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, e := range rows {
		out[i] = toExpense(e)
	}
	return out
}

func periodParams(userID string, p core.Period) ListExpensesByUserInRangeParams {
	params := ListExpensesByUserInRangeParams{UserID: userID, Start: minTime, End: maxTime}
	if !p.Start.IsZero() {
		params.Start = ts(p.Start)
	}
	if !p.End.IsZero() {
		params.End = ts(p.End)
	}
	return params
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:                 e.ID,
		UserID:             e.UserID,
		AmountCents:        e.Amount.Cents,
		Description:        e.Description,
		Category:           string(e.Category),
		CustomCategoryName: nullString(e.CustomCategoryName),
		Date:               ts(e.Date),
		CreatedAt:          ts(e.CreatedAt),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", mapErr(err))
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount_cents", row.AmountCents,
		"category", row.Category)

	return toExpense(row), nil
}

// ListExpenses returns the user's expenses newest first. A zero period
// bound is treated as open.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, p core.Period) ([]core.Expense, error) {
	var (
		rows []Expense
		err  error
	)
	if p.Start.IsZero() && p.End.IsZero() {
		rows, err = r.queries.ListExpensesByUser(ctx, userID)
	} else {
		rows, err = r.queries.ListExpensesByUserInRange(ctx, periodParams(userID, p))
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toExpenses(rows), nil
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID string, p core.Period) (core.Money, error) {
	total, err := r.queries.SumExpensesByUserInRange(ctx, periodParams(userID, p))
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) SummarizeExpenses(ctx context.Context, userID string, p core.Period) ([]core.CategoryTotal, error) {
	rows, err := r.queries.SumExpensesByCategory(ctx, periodParams(userID, p))
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	out := make([]core.CategoryTotal, len(rows))
	for i, cs := range rows {
		out[i] = core.CategoryTotal{Category: cs.Category, Total: core.Money{Cents: cs.TotalCents}}
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	err := affected(r.queries.DeleteExpense(ctx, DeleteExpenseParams{ID: id, UserID: userID}))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// Savings goals

func toSavingsGoal(g SavingsGoal) core.SavingsGoal {
	return core.SavingsGoal{
		ID:            g.ID,
		UserID:        g.UserID,
		GoalName:      g.GoalName,
		TargetAmount:  core.Money{Cents: g.TargetAmountCents},
		CurrentAmount: core.Money{Cents: g.CurrentAmountCents},
		TargetDate:    parseTS(g.TargetDate),
		Category:      g.Category.String,
		IsCompleted:   g.IsCompleted,
		CreatedAt:     parseTS(g.CreatedAt),
		UpdatedAt:     parseTS(g.UpdatedAt),
	}
}

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	row, err := r.queries.CreateSavingsGoal(ctx, CreateSavingsGoalParams{
		ID:                g.ID,
		UserID:            g.UserID,
		GoalName:          g.GoalName,
		TargetAmountCents: g.TargetAmount.Cents,
		TargetDate:        ts(g.TargetDate),
		Category:          nullString(g.Category),
		CreatedAt:         ts(g.CreatedAt),
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", mapErr(err))
	}
	return toSavingsGoal(row), nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.queries.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	out := make([]core.SavingsGoal, len(rows))
	for i, g := range rows {
		out[i] = toSavingsGoal(g)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row, err := r.queries.GetSavingsGoal(ctx, GetSavingsGoalParams{ID: id, UserID: userID})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", mapErr(err))
	}
	return toSavingsGoal(row), nil
}

// UpdateSavingsGoalProgress persists CurrentAmount and IsCompleted.
func (r *SQLiteRepository) UpdateSavingsGoalProgress(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	row, err := r.queries.UpdateSavingsGoalProgress(ctx, UpdateSavingsGoalProgressParams{
		CurrentAmountCents: g.CurrentAmount.Cents,
		IsCompleted:        g.IsCompleted,
		UpdatedAt:          ts(g.UpdatedAt),
		ID:                 g.ID,
		UserID:             g.UserID,
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", mapErr(err))
	}
	return toSavingsGoal(row), nil
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	err := affected(r.queries.DeleteSavingsGoal(ctx, GetSavingsGoalParams{ID: id, UserID: userID}))
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return nil
}

// Alerts and digests

func toBudgetAlert(a BudgetAlert) core.BudgetAlert {
	return core.BudgetAlert{
		ID:         a.ID,
		UserID:     a.UserID,
		Type:       core.AlertType(a.Type),
		Message:    a.Message,
		Amount:     core.Money{Cents: a.AmountCents},
		Budget:     core.Money{Cents: a.BudgetCents},
		Percentage: a.Percentage,
		IsRead:     a.IsRead,
		CreatedAt:  parseTS(a.CreatedAt),
	}
}

func (r *SQLiteRepository) CreateBudgetAlert(ctx context.Context, a core.BudgetAlert) (core.BudgetAlert, error) {
	row, err := r.queries.CreateBudgetAlert(ctx, CreateBudgetAlertParams{
		ID:          a.ID,
		UserID:      a.UserID,
		Type:        string(a.Type),
		Message:     a.Message,
		AmountCents: a.Amount.Cents,
		BudgetCents: a.Budget.Cents,
		Percentage:  a.Percentage,
		CreatedAt:   ts(a.CreatedAt),
	})
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("create budget alert: %w", mapErr(err))
	}
	return toBudgetAlert(row), nil
}

func (r *SQLiteRepository) ListBudgetAlerts(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	rows, err := r.queries.ListBudgetAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget alerts: %w", err)
	}
	out := make([]core.BudgetAlert, len(rows))
	for i, a := range rows {
		out[i] = toBudgetAlert(a)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudgetAlert(ctx context.Context, id string) (core.BudgetAlert, error) {
	row, err := r.queries.GetBudgetAlert(ctx, id)
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("get budget alert: %w", mapErr(err))
	}
	return toBudgetAlert(row), nil
}

// MarkBudgetAlertRead returns core.ErrNotFound for alerts of other users.
func (r *SQLiteRepository) MarkBudgetAlertRead(ctx context.Context, userID, id string) (core.BudgetAlert, error) {
	row, err := r.queries.MarkBudgetAlertRead(ctx, MarkBudgetAlertReadParams{ID: id, UserID: userID})
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("mark alert read: %w", mapErr(err))
	}
	return toBudgetAlert(row), nil
}

func (r *SQLiteRepository) CountUnreadBudgetAlerts(ctx context.Context, userID string) (int64, error) {
	n, err := r.queries.CountUnreadBudgetAlerts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread alerts: %w", err)
	}
	return n, nil
}

func toWeeklyDigest(d WeeklyDigest) (core.WeeklyDigest, error) {
	breakdown := map[string]core.Money{}
	if d.CategoryBreakdown != "" {
		if err := json.Unmarshal([]byte(d.CategoryBreakdown), &breakdown); err != nil {
			return core.WeeklyDigest{}, fmt.Errorf("decode category breakdown: %w", err)
		}
	}
	return core.WeeklyDigest{
		ID:                d.ID,
		UserID:            d.UserID,
		WeekStart:         parseTS(d.WeekStart),
		WeekEnd:           parseTS(d.WeekEnd),
		TotalSpent:        core.Money{Cents: d.TotalSpentCents},
		CategoryBreakdown: breakdown,
		Message:           d.Message,
		CreatedAt:         parseTS(d.CreatedAt),
	}, nil
}

func (r *SQLiteRepository) CreateWeeklyDigest(ctx context.Context, d core.WeeklyDigest) (core.WeeklyDigest, error) {
	breakdown, err := json.Marshal(d.CategoryBreakdown)
	if err != nil {
		return core.WeeklyDigest{}, fmt.Errorf("encode category breakdown: %w", err)
	}
	row, err := r.queries.CreateWeeklyDigest(ctx, CreateWeeklyDigestParams{
		ID:                d.ID,
		UserID:            d.UserID,
		WeekStart:         ts(d.WeekStart),
		WeekEnd:           ts(d.WeekEnd),
		TotalSpentCents:   d.TotalSpent.Cents,
		CategoryBreakdown: string(breakdown),
		Message:           d.Message,
		CreatedAt:         ts(d.CreatedAt),
	})
	if err != nil {
		return core.WeeklyDigest{}, fmt.Errorf("create weekly digest: %w", mapErr(err))
	}
	return toWeeklyDigest(row)
}

func (r *SQLiteRepository) ListWeeklyDigests(ctx context.Context, userID string, limit int) ([]core.WeeklyDigest, error) {
	rows, err := r.queries.ListWeeklyDigests(ctx, ListWeeklyDigestsParams{UserID: userID, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list weekly digests: %w", err)
	}
	out := make([]core.WeeklyDigest, 0, len(rows))
	for _, d := range rows {
		digest, err := toWeeklyDigest(d)
		if err != nil {
			return nil, err
		}
		out = append(out, digest)
	}
	return out, nil
}

func (r *SQLiteRepository) GetWeeklyDigest(ctx context.Context, id string) (core.WeeklyDigest, error) {
	row, err := r.queries.GetWeeklyDigest(ctx, id)
	if err != nil {
		return core.WeeklyDigest{}, fmt.Errorf("get weekly digest: %w", mapErr(err))
	}
	return toWeeklyDigest(row)
}
