package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	Id        int        `json:"id"`
	Category  string     `json:"category"`
	Amount    float64    `json:"amount"`
	Period    string     `json:"period"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateBudgetRequest struct {
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Period    string          `json:"period,omitempty"`
	StartDate string          `json:"startDate,omitempty"`
	EndDate   string          `json:"endDate,omitempty"`
}

type BudgetStatusDTO struct {
	BudgetDTO
	WindowStart  time.Time `json:"windowStart"`
	WindowEnd    time.Time `json:"windowEnd"`
	Spent        float64   `json:"spent"`
	Remaining    float64   `json:"remaining"`
	Percentage   float64   `json:"percentage"`
	IsOverBudget bool      `json:"isOverBudget"`
	IsNearLimit  bool      `json:"isNearLimit"`
}

type OverviewDTO struct {
	TotalBudget     float64           `json:"totalBudget"`
	TotalSpent      float64           `json:"totalSpent"`
	TotalRemaining  float64           `json:"totalRemaining"`
	OverBudgetCount int               `json:"overBudgetCount"`
	NearLimitCount  int               `json:"nearLimitCount"`
	Budgets         []BudgetStatusDTO `json:"budgets"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

// Register godoc
// @Summary Create or update a budget
// @Description Stores a budget for a category and period. An existing budget for the same category and period gets the new amount and is re-activated.
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body CreateBudgetRequest true "Budget"
// @Success 201 {object} BudgetDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid budget"
// @Router /api/budget [post]
// @Security BearerAuth
func (handler *BudgetHandler) Register(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new budget")
	w.Header().Set("Content-Type", "application/json")

	var request CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	budget := Budget{
		Category: request.Category,
		Amount:   request.Amount,
		Period:   Period(request.Period),
	}
	loc := record.UserLocation(r)
	if request.StartDate != "" {
		startDate, err := record.ParseDate(request.StartDate, loc)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid budget", err.Error())
			return
		}
		budget.StartDate = startDate
	}
	if request.EndDate != "" {
		endDate, err := record.ParseDate(request.EndDate, loc)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid budget", err.Error())
			return
		}
		budget.EndDate = &endDate
	}

	created, err := handler.budgetService.CreateBudget(r.Context(), budget)
	if err != nil {
		writeBudgetError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, BudgetToDTO(created))
}

// GetAll godoc
// @Summary Active budgets
// @Description Returns the active budgets of the current user, newest first, with spending in the current window
// @Tags Budget
// @Produce json
// @Success 200 {array} BudgetStatusDTO
// @Router /api/budget [get]
// @Security BearerAuth
func (handler *BudgetHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	statuses, err := handler.budgetService.GetBudgets(r.Context())
	if err != nil {
		writeBudgetError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, statusesToDTO(statuses))
}

// Overview godoc
// @Summary Budget overview
// @Description Totals over all active budgets and the number of budgets over or near their limit
// @Tags Budget
// @Produce json
// @Success 200 {object} OverviewDTO
// @Router /api/budget/overview [get]
// @Security BearerAuth
func (handler *BudgetHandler) Overview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	overview, err := handler.budgetService.GetBudgetOverview(r.Context())
	if err != nil {
		writeBudgetError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, OverviewDTO{
		TotalBudget:     overview.TotalBudget.InexactFloat64(),
		TotalSpent:      overview.TotalSpent.InexactFloat64(),
		TotalRemaining:  overview.TotalRemaining.InexactFloat64(),
		OverBudgetCount: overview.OverBudgetCount,
		NearLimitCount:  overview.NearLimitCount,
		Budgets:         statusesToDTO(overview.Budgets),
	})
}

// Delete godoc
// @Summary Delete a budget
// @Tags Budget
// @Param budgetId path int true "Budget ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Budget not found"
// @Router /api/budget/{budgetId} [delete]
// @Security BearerAuth
func (handler *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	budgetId, err := strconv.Atoi(mux.Vars(r)["budgetId"])
	if err != nil {
		http.Error(w, "Invalid budget ID", http.StatusBadRequest)
		return
	}
	log.Debugf("Deleting budget %d", budgetId)

	if err := handler.budgetService.DeleteBudget(r.Context(), budgetId); err != nil {
		writeBudgetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBudgetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrInvalidBudget):
		rest.WriteError(w, http.StatusBadRequest, "Category and valid amount are required", err.Error())
	case errors.Is(err, ErrBudgetNotFound):
		rest.WriteError(w, http.StatusNotFound, "Budget not found", "")
	default:
		log.Errorf("budget request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func BudgetToDTO(budget Budget) BudgetDTO {
	return BudgetDTO{
		Id:        budget.Id,
		Category:  budget.Category,
		Amount:    budget.Amount.InexactFloat64(),
		Period:    string(budget.Period),
		StartDate: budget.StartDate,
		EndDate:   budget.EndDate,
		IsActive:  budget.IsActive,
		CreatedAt: budget.CreatedAt,
		UpdatedAt: budget.UpdatedAt,
	}
}

func statusesToDTO(statuses []BudgetStatus) []BudgetStatusDTO {
	dtos := make([]BudgetStatusDTO, 0, len(statuses))
	for _, s := range statuses {
		dtos = append(dtos, BudgetStatusDTO{
			BudgetDTO:    BudgetToDTO(s.Budget),
			WindowStart:  s.WindowStart,
			WindowEnd:    s.WindowEnd,
			Spent:        s.Spent.InexactFloat64(),
			Remaining:    s.Remaining.InexactFloat64(),
			Percentage:   s.Percentage,
			IsOverBudget: s.IsOverBudget(),
			IsNearLimit:  s.IsNearLimit(),
		})
	}
	return dtos
}
