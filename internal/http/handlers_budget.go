package http

import (
	"net/http"
	"strings"

	"spendwise/internal/config"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

type budgetResponse struct {
	services.BudgetStatus
	Month        string `json:"month"`
	UnreadAlerts int64  `json:"unreadAlerts"`
}

// handleBudget reports the current month's spend against the budget.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	now := s.localNow()

	spent, err := s.repo.SumExpenses(r.Context(), user.ID, core.Month(now))
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	unread, err := s.repo.CountUnreadBudgetAlerts(r.Context(), user.ID)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}

	OK(budgetResponse{
		BudgetStatus: services.EvaluateBudget(spent, s.monthlyBudget()),
		Month:        now.Format("2006-01"),
		UnreadAlerts: unread,
	}).Write(w)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.repo.ListBudgetAlerts(r.Context(), currentUser(r).ID)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	if alerts == nil {
		alerts = []core.BudgetAlert{}
	}
	OK(map[string]any{"alerts": alerts}).Write(w)
}

type markAlertRequest struct {
	AlertID string `json:"alertId"`
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	var req markAlertRequest
	if err := DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.AlertID) == "" {
		BadRequestError("Alert ID is required").Write(w)
		return
	}

	alert, err := s.repo.MarkBudgetAlertRead(r.Context(), currentUser(r).ID, strings.TrimSpace(req.AlertID))
	if err != nil {
		FromError(r, err, "Alert not found").Write(w)
		return
	}
	OK(map[string]any{"alert": alert}).Write(w)
}

func (s *Server) handleListDigests(w http.ResponseWriter, r *http.Request) {
	digests, err := s.repo.ListWeeklyDigests(r.Context(), currentUser(r).ID, ParseLimit(r.URL.Query()))
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	if digests == nil {
		digests = []core.WeeklyDigest{}
	}
	OK(map[string]any{"digests": digests}).Write(w)
}

// handleSchedulerTest runs the weekly tasks immediately. Development only.
func (s *Server) handleSchedulerTest(w http.ResponseWriter, r *http.Request) {
	if s.env != config.EnvDevelopment {
		ForbiddenError("Only available in development").Write(w)
		return
	}
	sched := s.budgetScheduler()
	if sched == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Scheduler not available").Write(w)
		return
	}

	report, err := sched.TriggerWeeklyTasks(r.Context())
	if err != nil {
		// per-user failures are already in the report
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Weekly tasks finished with errors",
			applog.FieldError, err,
			"errors", len(report.Errors))
	}

	OK(map[string]any{
		"message":   "Weekly tasks triggered successfully",
		"timestamp": s.now().UTC(),
		"report":    report,
	}).Write(w)
}
