package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"

	"github.com/gorilla/mux"
)

const SessionCookieName = "spendwise_session"

// Repository is everything the handlers read and write.
// *storage.SQLiteRepository satisfies it.
type Repository interface {
	auth.Store
	services.SchedulerStore

	Ping(ctx context.Context) error

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	SummarizeExpenses(ctx context.Context, userID string, p core.Period) ([]core.CategoryTotal, error)
	DeleteExpense(ctx context.Context, userID, id string) error

	CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
	GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
	UpdateSavingsGoalProgress(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	DeleteSavingsGoal(ctx context.Context, userID, id string) error

	ListBudgetAlerts(ctx context.Context, userID string) ([]core.BudgetAlert, error)
	MarkBudgetAlertRead(ctx context.Context, userID, id string) (core.BudgetAlert, error)
	CountUnreadBudgetAlerts(ctx context.Context, userID string) (int64, error)
	ListWeeklyDigests(ctx context.Context, userID string, limit int) ([]core.WeeklyDigest, error)

	CreateMealPlan(ctx context.Context, m core.MealPlan) (core.MealPlan, error)
	ListMealPlans(ctx context.Context, userID string, start, end time.Time) ([]core.MealPlan, error)
	GetMealPlan(ctx context.Context, userID, id string) (core.MealPlan, error)
	FindMealPlan(ctx context.Context, userID string, date time.Time, mealType string) (core.MealPlan, error)
	UpdateMealPlan(ctx context.Context, m core.MealPlan) (core.MealPlan, error)

	CreateShoppingList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error)
	LatestShoppingList(ctx context.Context, userID string) (core.ShoppingList, error)
	UpdateShoppingList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error)
	DeleteShoppingList(ctx context.Context, userID, id string) error
	SaveGeneratedList(ctx context.Context, l core.ShoppingList, groceries []core.Grocery) (core.ShoppingList, error)

	ListGroceries(ctx context.Context, userID, listID string) ([]core.Grocery, error)
	SetGroceryChecked(ctx context.Context, userID, id string, checked bool) (core.Grocery, error)
	DeleteGrocery(ctx context.Context, userID, id string) error
	CreateGroceryDay(ctx context.Context, d core.GroceryDay) (core.GroceryDay, error)
	LatestGroceryDay(ctx context.Context, userID string) (core.GroceryDay, error)
}

// Options configures NewServer. Repo and Auth are required.
type Options struct {
	Addr string
	Repo Repository
	Auth *auth.Service
	// Scheduler backs /api/scheduler/test and the budget figure. When nil
	// the process-wide default scheduler is used, if any.
	Scheduler *services.BudgetScheduler
	Budget    core.Money

	Env                string
	CookieSecure       bool
	RateLimitPerMinute int
	CacheTTL           time.Duration
	Logger             *applog.Logger
	Now                func() time.Time
	// Location bounds days, weeks and months. Defaults to the scheduler's
	// location so /api/budget agrees with the alert job.
	Location *time.Location
}

type Server struct {
	http.Server

	repo         Repository
	auth         *auth.Service
	scheduler    *services.BudgetScheduler
	loc          *time.Location
	budget       core.Money
	env          string
	cookieSecure bool
	now          func() time.Time
	logger       *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// per user and range; invalidated on expense writes
	summaries *cache.LRUCache[[]core.CategoryTotal]
	caches    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = applog.FromContext(context.Background())
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
		if opts.Scheduler != nil {
			opts.Location = opts.Scheduler.Location()
		}
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		repo:         opts.Repo,
		auth:         opts.Auth,
		scheduler:    opts.Scheduler,
		budget:       opts.Budget,
		env:          opts.Env,
		cookieSecure: opts.CookieSecure,
		now:          opts.Now,
		loc:          opts.Location,
		logger:       opts.Logger,
		limiter:      ratelimit.NewLimiter(rlConfig),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP),
		summaries:    cache.NewLRUCache[[]core.CategoryTotal](200, opts.CacheTTL),
		caches:       cache.NewManager(),
	}
	s.caches.Register("expense_summaries", s.summaries)
	s.caches.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("").Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	p := api.NewRoute().Subrouter()
	p.Use(s.requireSession)

	p.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	p.HandleFunc("/auth/session", s.handleSession).Methods(http.MethodGet)

	p.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	p.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	p.HandleFunc("/expenses/summary", s.handleExpenseSummary).Methods(http.MethodGet)
	p.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	p.HandleFunc("/budget", s.handleBudget).Methods(http.MethodGet)
	p.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	p.HandleFunc("/alerts", s.handleMarkAlertRead).Methods(http.MethodPatch)
	p.HandleFunc("/digests", s.handleListDigests).Methods(http.MethodGet)
	p.HandleFunc("/scheduler/test", s.handleSchedulerTest).Methods(http.MethodPost)

	p.HandleFunc("/savings-goals", s.handleCreateSavingsGoal).Methods(http.MethodPost)
	p.HandleFunc("/savings-goals", s.handleListSavingsGoals).Methods(http.MethodGet)
	p.HandleFunc("/savings-goals/{id}", s.handleUpdateSavingsGoal).Methods(http.MethodPatch)
	p.HandleFunc("/savings-goals/{id}", s.handleDeleteSavingsGoal).Methods(http.MethodDelete)

	p.HandleFunc("/meal-plans", s.handleListMealPlans).Methods(http.MethodGet)
	p.HandleFunc("/meal-plans", s.handleCreateMealPlan).Methods(http.MethodPost)
	p.HandleFunc("/meal-plans/{id}", s.handleUpdateMealPlan).Methods(http.MethodPatch)

	p.HandleFunc("/shopping-lists", s.handleLatestShoppingList).Methods(http.MethodGet)
	p.HandleFunc("/shopping-lists", s.handleCreateShoppingList).Methods(http.MethodPost)
	p.HandleFunc("/shopping-lists", s.handleUpsertShoppingList).Methods(http.MethodPatch)
	p.HandleFunc("/shopping-lists/{id}", s.handleDeleteShoppingList).Methods(http.MethodDelete)

	p.HandleFunc("/groceries", s.handleListGroceries).Methods(http.MethodGet)
	p.HandleFunc("/groceries/{id}", s.handleCheckGrocery).Methods(http.MethodPatch)
	p.HandleFunc("/groceries/{id}", s.handleDeleteGrocery).Methods(http.MethodDelete)
	p.HandleFunc("/grocery-day", s.handleLatestGroceryDay).Methods(http.MethodGet)
	p.HandleFunc("/grocery-day", s.handleSetGroceryDay).Methods(http.MethodPost)
	p.HandleFunc("/grocery-list/generate", s.handleGenerateGroceryList).Methods(http.MethodPost)

	p.HandleFunc("/recommendations", s.handleRecommendationsForLatest).Methods(http.MethodGet)
	p.HandleFunc("/recommendations", s.handleRecommendationsForList).Methods(http.MethodPost)

	return r
}

// middleware applies, outermost first: trace, request logger, security
// headers, suspicious request detection, rate limiting, panic recovery.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = recoverPanics(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(s.logger, trace.RequestIDFrom)(h)
	h = s.tracer.Middleware(h)
	return h
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
					applog.FieldError, fmt.Sprint(rec),
					applog.FieldPath, r.URL.Path,
					"stack", string(debug.Stack()))
				InternalServerError().Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireSession resolves the session cookie (or a bearer token) and puts
// the user into the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, err := s.auth.Authenticate(ctx, sessionToken(r))
		if errors.Is(err, auth.ErrUnauthorized) {
			UnauthorizedError().Write(w)
			return
		}
		if err != nil {
			FromError(r, err, "Unauthorized").Write(w)
			return
		}

		user, err := s.auth.CurrentUser(ctx, session)
		if err != nil {
			FromError(r, err, "User not found").Write(w)
			return
		}

		ctx = auth.NewContext(ctx, user, session)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// currentUser is only valid behind requireSession.
func currentUser(r *http.Request) core.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

// localNow is the current time in the location periods are computed in.
func (s *Server) localNow() time.Time {
	return s.now().In(s.loc)
}

// budgetScheduler returns the configured scheduler, falling back to the
// process-wide one.
func (s *Server) budgetScheduler() *services.BudgetScheduler {
	if s.scheduler != nil {
		return s.scheduler
	}
	return services.DefaultScheduler()
}

func (s *Server) monthlyBudget() core.Money {
	if s.budget.Cents > 0 {
		return s.budget
	}
	if sched := s.budgetScheduler(); sched != nil {
		return sched.Budget()
	}
	return core.Money{Cents: 50000}
}

func (s *Server) summaryKey(userID, rangeName string, p core.Period) string {
	return fmt.Sprintf("%s:%s:%d", userID, rangeName, p.Start.Unix())
}

func (s *Server) invalidateSummaries(userID string) {
	if n := s.summaries.DeletePrefix(userID + ":"); n > 0 {
		slog.Debug("Expense summaries invalidated", "user_id", userID, "entries", n)
	}
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
