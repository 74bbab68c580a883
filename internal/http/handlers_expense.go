package http

import (
	"net/http"
	"strings"

	"spendwise/internal/core"
	applog "spendwise/internal/log"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createExpenseRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	CustomCategoryName string          `json:"customCategoryName"`
	Date               string          `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	user := currentUser(r)
	// an unparsable date stays zero and is reported by Validate
	date, _ := core.ParseDateTime(strings.TrimSpace(req.Date))
	now := s.now()
	exp := core.Expense{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		Amount:             core.MoneyFromDecimal(req.Amount),
		Description:        sanitizeInput(req.Description),
		Category:           core.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		CustomCategoryName: sanitizeInput(req.CustomCategoryName),
		Date:               date,
		CreatedAt:          now,
	}
	if exp.Category != core.CategoryOther {
		exp.CustomCategoryName = ""
	}
	if err := exp.ValidateSubmitted(req.Amount); err != nil {
		FromError(r, err, "").Write(w)
		return
	}

	saved, err := s.repo.CreateExpense(r.Context(), exp)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	s.invalidateSummaries(user.ID)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.FieldRecordID, saved.ID,
		applog.FieldAmountCents, saved.Amount.Cents,
		applog.FieldCategory, saved.Category)

	Created(map[string]any{
		"message": "Expense created successfully",
		"expense": saved,
	}).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period, _ := ParseRange(r.URL.Query(), s.localNow())
	expenses, err := s.repo.ListExpenses(r.Context(), currentUser(r).ID, period)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	OK(map[string]any{"expenses": expenses}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := s.repo.DeleteExpense(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		FromError(r, err, "Expense not found").Write(w)
		return
	}
	s.invalidateSummaries(user.ID)
	Message("Expense deleted successfully").Write(w)
}

// handleExpenseSummary totals spend per category. Results are cached per
// user and range until the user's next expense write.
func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	period, name := ParseRange(r.URL.Query(), s.localNow())
	key := s.summaryKey(user.ID, name, period)

	if totals, ok := s.summaries.Get(key); ok {
		OK(totals).Write(w)
		return
	}

	totals, err := s.repo.SummarizeExpenses(r.Context(), user.ID, period)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	s.summaries.Set(key, totals)
	OK(totals).Write(w)
}
