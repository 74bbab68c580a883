package http

import (
	"errors"
	"net/http"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	mealPlanNotFound     = "Meal plan not found"
	mealPlanExists       = "Meal plan already exists"
	shoppingListNotFound = "Shopping list not found"
	groceryNotFound      = "Grocery item not found"
)

// Meal plans

type mealPlanRequest struct {
	Date        *string            `json:"date"`
	MealType    *string            `json:"mealType"`
	Ingredients *[]core.Ingredient `json:"ingredients"`
}

func (s *Server) handleListMealPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := ParseOptionalDate(q.Get("startDate"))
	if err != nil {
		BadRequestError("Invalid startDate").Write(w)
		return
	}
	end, err := ParseOptionalDate(q.Get("endDate"))
	if err != nil {
		BadRequestError("Invalid endDate").Write(w)
		return
	}

	plans, err := s.repo.ListMealPlans(r.Context(), currentUser(r).ID, start, end)
	if err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}
	if plans == nil {
		plans = []core.MealPlan{}
	}
	OK(plans).Write(w)
}

func (s *Server) handleCreateMealPlan(w http.ResponseWriter, r *http.Request) {
	var req mealPlanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Missing required fields").Write(w)
		return
	}
	if req.Date == nil || strings.TrimSpace(*req.Date) == "" || req.MealType == nil || strings.TrimSpace(*req.MealType) == "" {
		BadRequestError("Missing required fields").Write(w)
		return
	}
	date, err := core.ParseDateTime(strings.TrimSpace(*req.Date))
	if err != nil {
		BadRequestError("Invalid date").Write(w)
		return
	}

	user := currentUser(r)
	mealType := core.NormalizeMealType(*req.MealType)

	_, err = s.repo.FindMealPlan(r.Context(), user.ID, date, mealType)
	if err == nil {
		BadRequestError(mealPlanExists).Write(w)
		return
	}
	if !errors.Is(err, core.ErrNotFound) {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}

	now := s.now()
	plan := core.MealPlan{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Date:      date,
		MealType:  mealType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Ingredients != nil {
		plan.Ingredients = *req.Ingredients
	}
	if err := plan.Validate(); err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}

	saved, err := s.repo.CreateMealPlan(r.Context(), plan)
	if errors.Is(err, core.ErrConflict) {
		BadRequestError(mealPlanExists).Write(w)
		return
	}
	if err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}
	OK(saved).Write(w)
}

// handleUpdateMealPlan changes only the fields present in the body.
func (s *Server) handleUpdateMealPlan(w http.ResponseWriter, r *http.Request) {
	var req mealPlanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	plan, err := s.repo.GetMealPlan(r.Context(), currentUser(r).ID, mux.Vars(r)["id"])
	if err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}

	if req.Date != nil {
		date, err := core.ParseDateTime(strings.TrimSpace(*req.Date))
		if err != nil {
			BadRequestError("Invalid date").Write(w)
			return
		}
		plan.Date = date
	}
	if req.MealType != nil {
		plan.MealType = core.NormalizeMealType(*req.MealType)
	}
	if req.Ingredients != nil {
		plan.Ingredients = *req.Ingredients
	}
	if err := plan.Validate(); err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}
	plan.UpdatedAt = s.now()

	updated, err := s.repo.UpdateMealPlan(r.Context(), plan)
	if errors.Is(err, core.ErrConflict) {
		BadRequestError(mealPlanExists).Write(w)
		return
	}
	if err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}
	OK(updated).Write(w)
}

// Shopping lists

type shoppingListRequest struct {
	Store *string              `json:"store"`
	Items *[]core.ShoppingItem `json:"items"`
}

func (s *Server) emptyShoppingList(userID string) core.ShoppingList {
	now := s.now()
	return core.ShoppingList{
		UserID:    userID,
		Items:     []core.ShoppingItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// handleLatestShoppingList returns the newest list, or an empty placeholder
// with an empty id when the user has none.
func (s *Server) handleLatestShoppingList(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	list, err := s.repo.LatestShoppingList(r.Context(), user.ID)
	if errors.Is(err, core.ErrNotFound) {
		OK(s.emptyShoppingList(user.ID)).Write(w)
		return
	}
	if err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	OK(list).Write(w)
}

func (s *Server) handleCreateShoppingList(w http.ResponseWriter, r *http.Request) {
	var req shoppingListRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	now := s.now()
	list := core.ShoppingList{
		ID:        uuid.NewString(),
		UserID:    currentUser(r).ID,
		Items:     []core.ShoppingItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Store != nil {
		list.Store = sanitizeInput(*req.Store)
	}
	if req.Items != nil {
		list.Items = *req.Items
	}
	if err := list.Validate(); err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	list.TotalCost = core.ShoppingTotal(list.Items)

	saved, err := s.repo.CreateShoppingList(r.Context(), list)
	if err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	OK(saved).Write(w)
}

// handleUpsertShoppingList updates the newest list, keeping fields absent
// from the body, or creates a list when the user has none.
func (s *Server) handleUpsertShoppingList(w http.ResponseWriter, r *http.Request) {
	var req shoppingListRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	if req.Items != nil {
		if err := core.ValidateShoppingItems(*req.Items); err != nil {
			FromError(r, err, shoppingListNotFound).Write(w)
			return
		}
	}

	user := currentUser(r)
	now := s.now()
	list, err := s.repo.LatestShoppingList(r.Context(), user.ID)
	creating := errors.Is(err, core.ErrNotFound)
	if err != nil && !creating {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	if creating {
		list = s.emptyShoppingList(user.ID)
		list.ID = uuid.NewString()
	}

	if req.Store != nil {
		list.Store = sanitizeInput(*req.Store)
	}
	if req.Items != nil {
		list.Items = *req.Items
	}
	list.TotalCost = core.ShoppingTotal(list.Items)
	list.UpdatedAt = now

	var saved core.ShoppingList
	if creating {
		saved, err = s.repo.CreateShoppingList(r.Context(), list)
	} else {
		saved, err = s.repo.UpdateShoppingList(r.Context(), list)
	}
	if err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	OK(saved).Write(w)
}

// handleDeleteShoppingList removes the list together with its groceries.
func (s *Server) handleDeleteShoppingList(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteShoppingList(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	NoContent().Write(w)
}

// Groceries

func (s *Server) handleListGroceries(w http.ResponseWriter, r *http.Request) {
	listID := strings.TrimSpace(r.URL.Query().Get("shoppingListId"))
	groceries, err := s.repo.ListGroceries(r.Context(), currentUser(r).ID, listID)
	if err != nil {
		FromError(r, err, groceryNotFound).Write(w)
		return
	}
	if groceries == nil {
		groceries = []core.Grocery{}
	}
	OK(groceries).Write(w)
}

type checkGroceryRequest struct {
	Checked *bool `json:"checked"`
}

func (s *Server) handleCheckGrocery(w http.ResponseWriter, r *http.Request) {
	var req checkGroceryRequest
	if err := DecodeJSON(w, r, &req); err != nil || req.Checked == nil {
		BadRequestError("Missing required fields").Write(w)
		return
	}

	grocery, err := s.repo.SetGroceryChecked(r.Context(), currentUser(r).ID, mux.Vars(r)["id"], *req.Checked)
	if err != nil {
		FromError(r, err, groceryNotFound).Write(w)
		return
	}
	OK(grocery).Write(w)
}

func (s *Server) handleDeleteGrocery(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteGrocery(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		FromError(r, err, groceryNotFound).Write(w)
		return
	}
	NoContent().Write(w)
}

// handleLatestGroceryDay answers null when no day was recorded.
func (s *Server) handleLatestGroceryDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.repo.LatestGroceryDay(r.Context(), currentUser(r).ID)
	if errors.Is(err, core.ErrNotFound) {
		OK(nil).Write(w)
		return
	}
	if err != nil {
		FromError(r, err, "Grocery day not found").Write(w)
		return
	}
	OK(day).Write(w)
}

type groceryDayRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleSetGroceryDay(w http.ResponseWriter, r *http.Request) {
	var req groceryDayRequest
	if err := DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Date) == "" {
		BadRequestError("Missing date").Write(w)
		return
	}
	date, err := core.ParseDateTime(strings.TrimSpace(req.Date))
	if err != nil {
		BadRequestError("Invalid date").Write(w)
		return
	}

	day, err := s.repo.CreateGroceryDay(r.Context(), core.GroceryDay{
		ID:        uuid.NewString(),
		UserID:    currentUser(r).ID,
		Date:      date,
		CreatedAt: s.now(),
	})
	if err != nil {
		FromError(r, err, "Grocery day not found").Write(w)
		return
	}
	OK(day).Write(w)
}

type generateListRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// handleGenerateGroceryList merges the ingredients of every meal plan in
// the range into a new shopping list with one grocery row per item.
func (s *Server) handleGenerateGroceryList(w http.ResponseWriter, r *http.Request) {
	var req generateListRequest
	if err := DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" {
		BadRequestError("Missing required fields").Write(w)
		return
	}
	start, err1 := core.ParseDateTime(strings.TrimSpace(req.StartDate))
	end, err2 := core.ParseDateTime(strings.TrimSpace(req.EndDate))
	if err1 != nil || err2 != nil {
		BadRequestError("Invalid date").Write(w)
		return
	}
	if end.Before(start) {
		BadRequestError("endDate must not be before startDate").Write(w)
		return
	}

	user := currentUser(r)
	plans, err := s.repo.ListMealPlans(r.Context(), user.ID, start, end)
	if err != nil {
		FromError(r, err, mealPlanNotFound).Write(w)
		return
	}

	list, groceries := services.BuildGeneratedList(user.ID, services.MergeIngredients(plans), s.now())
	saved, err := s.repo.SaveGeneratedList(r.Context(), list, groceries)
	if err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	OK(saved).Write(w)
}

// Recommendations

func (s *Server) handleRecommendationsForLatest(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.LatestShoppingList(r.Context(), currentUser(r).ID)
	if errors.Is(err, core.ErrNotFound) {
		OK(services.Recommend(nil)).Write(w)
		return
	}
	if err != nil {
		FromError(r, err, shoppingListNotFound).Write(w)
		return
	}
	OK(services.Recommend(&list)).Write(w)
}

func (s *Server) handleRecommendationsForList(w http.ResponseWriter, r *http.Request) {
	var req shoppingListRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	list := core.ShoppingList{Items: []core.ShoppingItem{}, CreatedAt: s.now(), UpdatedAt: s.now()}
	if req.Store != nil {
		list.Store = sanitizeInput(*req.Store)
	}
	if req.Items != nil {
		list.Items = *req.Items
	}
	list.TotalCost = core.ShoppingTotal(list.Items)
	OK(services.Recommend(&list)).Write(w)
}
