package http

import (
	"net/http"
	"strings"

	"spendwise/internal/core"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const savingsGoalNotFound = "Savings goal not found"

type createSavingsGoalRequest struct {
	GoalName     string     `json:"goalName"`
	TargetAmount core.Money `json:"targetAmount"`
	TargetDate   string     `json:"targetDate"`
	Category     string     `json:"category"`
}

type updateSavingsGoalRequest struct {
	CurrentAmount *core.Money `json:"currentAmount"`
	IsCompleted   *bool       `json:"isCompleted"`
}

func (s *Server) handleCreateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req createSavingsGoalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	targetDate, _ := core.ParseDateTime(strings.TrimSpace(req.TargetDate))
	now := s.now()
	goal := core.SavingsGoal{
		ID:           uuid.NewString(),
		UserID:       currentUser(r).ID,
		GoalName:     sanitizeInput(req.GoalName),
		TargetAmount: req.TargetAmount,
		TargetDate:   targetDate,
		Category:     sanitizeInput(req.Category),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := goal.Validate(); err != nil {
		FromError(r, err, "").Write(w)
		return
	}

	saved, err := s.repo.CreateSavingsGoal(r.Context(), goal)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	Created(saved).Write(w)
}

func (s *Server) handleListSavingsGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.repo.ListSavingsGoals(r.Context(), currentUser(r).ID)
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}
	if goals == nil {
		goals = []core.SavingsGoal{}
	}
	OK(goals).Write(w)
}

// handleUpdateSavingsGoal records progress. Completion follows the target
// unless the request sets isCompleted.
func (s *Server) handleUpdateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req updateSavingsGoalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	if req.CurrentAmount == nil {
		ValidationErrorResponse(&core.ValidationError{Fields: []core.FieldError{
			{Field: "currentAmount", Message: "Current amount is required"},
		}}).Write(w)
		return
	}

	goal, err := s.repo.GetSavingsGoal(r.Context(), currentUser(r).ID, mux.Vars(r)["id"])
	if err != nil {
		FromError(r, err, savingsGoalNotFound).Write(w)
		return
	}
	if err := goal.ApplyProgress(*req.CurrentAmount, req.IsCompleted); err != nil {
		FromError(r, err, savingsGoalNotFound).Write(w)
		return
	}
	goal.UpdatedAt = s.now()

	updated, err := s.repo.UpdateSavingsGoalProgress(r.Context(), goal)
	if err != nil {
		FromError(r, err, savingsGoalNotFound).Write(w)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) handleDeleteSavingsGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteSavingsGoal(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		FromError(r, err, savingsGoalNotFound).Write(w)
		return
	}
	Message("Savings goal deleted successfully").Write(w)
}
