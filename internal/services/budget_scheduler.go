package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSchedule = "0 9 * * 0"
	defaultUserName = "User"
)

// SchedulerStore is the persistence the scheduler reads and writes.
type SchedulerStore interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	SumExpenses(ctx context.Context, userID string, p core.Period) (core.Money, error)
	ListExpenses(ctx context.Context, userID string, p core.Period) ([]core.Expense, error)
	CreateBudgetAlert(ctx context.Context, a core.BudgetAlert) (core.BudgetAlert, error)
	CreateWeeklyDigest(ctx context.Context, d core.WeeklyDigest) (core.WeeklyDigest, error)
}

// EventPublisher announces created records. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishAlertCreated(ctx context.Context, alert core.BudgetAlert) error
	PublishDigestCreated(ctx context.Context, digest core.WeeklyDigest) error
}

type SchedulerOptions struct {
	Budget   core.Money
	Schedule string
	Location *time.Location
	Now      func() time.Time
	// Logger receives created-record events; defaults to slog.Default.
	Logger *applog.Logger
}

// BudgetCheckResult is one user's current-month budget position.
type BudgetCheckResult struct {
	UserID          string       `json:"userId"`
	UserEmail       string       `json:"userEmail"`
	UserName        string       `json:"userName"`
	TotalSpent      core.Money   `json:"totalSpent"`
	PercentageUsed  float64      `json:"percentageUsed"`
	IsOver80Percent bool         `json:"isOver80Percent"`
	IsOverBudget    bool         `json:"isOverBudget"`
	Status          BudgetStatus `json:"-"`
}

// WeeklyReport summarizes one run of the weekly tasks.
type WeeklyReport struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	UsersChecked   int       `json:"users_checked"`
	AlertsCreated  int       `json:"alerts_created"`
	DigestsCreated int       `json:"digests_created"`
	Errors         []string  `json:"errors"`
}

type SchedulerStats struct {
	Runs           int64
	FailedRuns     int64
	AlertsCreated  int64
	DigestsCreated int64
	LastRun        time.Time
}

// BudgetScheduler creates budget alerts and weekly digests on a cron trigger.
// Overlapping runs, whether from cron or a manual trigger, share one execution.
type BudgetScheduler struct {
	store     SchedulerStore
	publisher EventPublisher
	budget    core.Money
	schedule  string
	loc       *time.Location
	now       func() time.Time
	events    *applog.StructuredLogger

	group singleflight.Group

	mu      sync.Mutex
	cron    *cron.Cron
	lastRun time.Time

	runs           atomic.Int64
	failedRuns     atomic.Int64
	alertsCreated  atomic.Int64
	digestsCreated atomic.Int64
}

// Location is the zone weeks and months are computed in.
func (s *BudgetScheduler) Location() *time.Location { return s.loc }

// NewBudgetScheduler builds the scheduler. publisher may be nil.
func NewBudgetScheduler(store SchedulerStore, publisher EventPublisher, opts SchedulerOptions) *BudgetScheduler {
	s := &BudgetScheduler{
		store:     store,
		publisher: publisher,
		budget:    opts.Budget,
		schedule:  opts.Schedule,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.budget.Cents <= 0 {
		s.budget = core.Money{Cents: 50000}
	}
	if s.schedule == "" {
		s.schedule = DefaultSchedule
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	s.events = applog.NewStructuredLogger(logger.WithComponent(applog.ComponentScheduler))
	return s
}

func (s *BudgetScheduler) Budget() core.Money { return s.budget }

// Start registers the weekly job and starts the cron runner. Jobs run with a
// context derived from ctx.
func (s *BudgetScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(s.schedule, func() {
		slog.InfoContext(ctx, "Running weekly budget check and digest generation")
		_, _ = s.RunWeeklyTasks(ctx, s.now())
	}); err != nil {
		return fmt.Errorf("schedule weekly tasks %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	slog.InfoContext(ctx, "Budget scheduler initialized",
		"schedule", s.schedule,
		"timezone", s.loc.String(),
		"next_run", s.nextRunLocked())
	return nil
}

// Stop halts the cron runner. The returned context is done once a running
// job has finished.
func (s *BudgetScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	ctx := s.cron.Stop()
	s.cron = nil
	return ctx
}

// NextRun is zero when the scheduler is not started.
func (s *BudgetScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunLocked()
}

func (s *BudgetScheduler) nextRunLocked() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *BudgetScheduler) Stats() SchedulerStats {
	s.mu.Lock()
	lastRun := s.lastRun
	s.mu.Unlock()
	return SchedulerStats{
		Runs:           s.runs.Load(),
		FailedRuns:     s.failedRuns.Load(),
		AlertsCreated:  s.alertsCreated.Load(),
		DigestsCreated: s.digestsCreated.Load(),
		LastRun:        lastRun,
	}
}

// TriggerWeeklyTasks runs the weekly tasks now.
func (s *BudgetScheduler) TriggerWeeklyTasks(ctx context.Context) (WeeklyReport, error) {
	slog.InfoContext(ctx, "Manually triggering weekly tasks")
	return s.RunWeeklyTasks(ctx, s.now())
}

// RunWeeklyTasks checks budget alerts and then generates weekly digests.
// Per-user failures are logged and reported without stopping the run.
func (s *BudgetScheduler) RunWeeklyTasks(ctx context.Context, now time.Time) (WeeklyReport, error) {
	v, err, shared := s.group.Do("weekly", func() (interface{}, error) {
		return s.runWeeklyTasks(ctx, now)
	})
	if shared {
		slog.InfoContext(ctx, "Joined weekly run already in progress")
	}
	report, _ := v.(WeeklyReport)
	return report, err
}

func (s *BudgetScheduler) runWeeklyTasks(ctx context.Context, now time.Time) (WeeklyReport, error) {
	report := WeeklyReport{StartedAt: now, Errors: []string{}}

	alerts, checked, alertErr := s.checkBudgetAlerts(ctx, now)
	report.AlertsCreated = alerts
	report.UsersChecked = checked

	var digestErr error
	if ctx.Err() == nil {
		report.DigestsCreated, digestErr = s.GenerateWeeklyDigests(ctx, now)
	} else {
		digestErr = ctx.Err()
	}

	err := errors.Join(alertErr, digestErr)
	report.Errors = append(report.Errors, flattenErrors(err)...)
	report.FinishedAt = s.now()

	s.runs.Add(1)
	s.mu.Lock()
	s.lastRun = report.FinishedAt
	s.mu.Unlock()

	if err != nil {
		s.failedRuns.Add(1)
		slog.ErrorContext(ctx, "Error running weekly tasks",
			"alerts_created", report.AlertsCreated,
			"digests_created", report.DigestsCreated,
			"users_checked", report.UsersChecked,
			"error_count", len(report.Errors),
			"error", err)
		return report, err
	}

	slog.InfoContext(ctx, "Weekly tasks completed successfully",
		"alerts_created", report.AlertsCreated,
		"digests_created", report.DigestsCreated,
		"users_checked", report.UsersChecked,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

// CheckBudgetAlerts evaluates the current month for every user and creates
// an alert for each one at or above the warning threshold.
func (s *BudgetScheduler) CheckBudgetAlerts(ctx context.Context, now time.Time) (int, error) {
	created, _, err := s.checkBudgetAlerts(ctx, now)
	return created, err
}

func (s *BudgetScheduler) checkBudgetAlerts(ctx context.Context, now time.Time) (created, checked int, err error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if user.Email == "" {
			continue
		}
		checked++

		result, err := s.evaluateUser(ctx, user, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check budget for user", "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("check budget for user %s: %w", user.ID, err))
			continue
		}
		if !result.Status.NeedsAlert() {
			continue
		}

		if err := s.createBudgetAlert(ctx, result, now); err != nil {
			slog.ErrorContext(ctx, "Failed to create budget alert", "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("create alert for user %s: %w", user.ID, err))
			continue
		}
		created++
	}
	return created, checked, errors.Join(errs...)
}

// CheckBudgetForUser evaluates one user's current month. It returns
// core.ErrNotFound when the user does not exist.
func (s *BudgetScheduler) CheckBudgetForUser(ctx context.Context, userID string, now time.Time) (BudgetCheckResult, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return BudgetCheckResult{}, fmt.Errorf("check budget for user %s: %w", userID, err)
	}
	return s.evaluateUser(ctx, user, now)
}

func (s *BudgetScheduler) evaluateUser(ctx context.Context, user core.User, now time.Time) (BudgetCheckResult, error) {
	month := core.Month(now.In(s.loc))
	spent, err := s.store.SumExpenses(ctx, user.ID, month)
	if err != nil {
		return BudgetCheckResult{}, err
	}

	status := EvaluateBudget(spent, s.budget)
	name := user.Name
	if name == "" {
		name = defaultUserName
	}
	return BudgetCheckResult{
		UserID:          user.ID,
		UserEmail:       user.Email,
		UserName:        name,
		TotalSpent:      spent,
		PercentageUsed:  status.Percentage,
		IsOver80Percent: status.Level == BudgetWarning || status.Level == BudgetExceeded,
		IsOverBudget:    status.Level == BudgetExceeded,
		Status:          status,
	}, nil
}

func (s *BudgetScheduler) createBudgetAlert(ctx context.Context, result BudgetCheckResult, now time.Time) error {
	status := result.Status
	alert, err := s.store.CreateBudgetAlert(ctx, core.BudgetAlert{
		ID:         uuid.NewString(),
		UserID:     result.UserID,
		Type:       status.AlertType(),
		Message:    status.AlertMessage(),
		Amount:     status.Spent,
		Budget:     status.Budget,
		Percentage: status.Percentage,
		CreatedAt:  now,
	})
	if err != nil {
		return err
	}
	s.alertsCreated.Add(1)

	s.events.LogAlertCreated(ctx, result.UserID, alert.ID, string(alert.Type),
		status.Spent.Cents, status.Budget.Cents, status.Percentage)

	if s.publisher != nil {
		if err := s.publisher.PublishAlertCreated(ctx, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to publish alert event", "alert_id", alert.ID, "error", err)
		}
	}
	return nil
}

// GenerateWeeklyDigests creates a digest of the previous week for every user
// who spent anything in it.
func (s *BudgetScheduler) GenerateWeeklyDigests(ctx context.Context, now time.Time) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	week := core.PreviousWeek(now.In(s.loc))
	created := 0
	var errs []error
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if user.Email == "" {
			continue
		}

		ok, err := s.generateDigest(ctx, user, week, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to generate weekly digest", "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("digest for user %s: %w", user.ID, err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}

func (s *BudgetScheduler) generateDigest(ctx context.Context, user core.User, week core.Period, now time.Time) (bool, error) {
	expenses, err := s.store.ListExpenses(ctx, user.ID, week)
	if err != nil {
		return false, err
	}
	summary, ok := AggregateDigest(expenses, week)
	if !ok {
		return false, nil
	}

	digest, err := s.store.CreateWeeklyDigest(ctx, core.WeeklyDigest{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		WeekStart:         week.Start,
		WeekEnd:           week.Last(),
		TotalSpent:        summary.Total,
		CategoryBreakdown: summary.Breakdown,
		Message:           DigestMessage(summary.Total),
		CreatedAt:         now,
	})
	if err != nil {
		return false, err
	}
	s.digestsCreated.Add(1)

	s.events.LogDigestCreated(ctx, user.ID, digest.ID, summary.Total.Cents,
		week.Start.Format(time.DateOnly), digest.WeekEnd.Format(time.DateOnly))

	if s.publisher != nil {
		if err := s.publisher.PublishDigestCreated(ctx, digest); err != nil {
			slog.ErrorContext(ctx, "Failed to publish digest event", "digest_id", digest.ID, "error", err)
		}
	}
	return true, nil
}

func flattenErrors(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// cronLogger routes robfig/cron logging into slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var (
	defaultMu        sync.Mutex
	defaultScheduler *BudgetScheduler
)

// SetDefaultScheduler binds the process-wide scheduler. Only the first call
// wins; it reports whether s was bound.
func SetDefaultScheduler(s *BudgetScheduler) bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultScheduler != nil {
		return false
	}
	defaultScheduler = s
	return true
}

// DefaultScheduler returns the process-wide scheduler, or nil if none is bound.
func DefaultScheduler() *BudgetScheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultScheduler
}
