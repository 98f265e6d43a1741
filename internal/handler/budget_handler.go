package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/dafibh/fortuna/wealth-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
	loc           *time.Location
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService, loc *time.Location) *BudgetHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BudgetHandler{budgetService: budgetService, loc: loc}
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	CategoryID *int32 `json:"categoryId,omitempty"`
	AccountID  *int32 `json:"accountId,omitempty"`
}

// BudgetResponse represents a budget with its live progress
type BudgetResponse struct {
	ID         int32  `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	CategoryID *int32 `json:"categoryId,omitempty"`
	AccountID  *int32 `json:"accountId,omitempty"`
	Spent      string `json:"spent"`
	Percentage string `json:"percentage"`
	CreatedAt  string `json:"createdAt"`
}

// CreateBudget godoc
// @Summary Create a budget
// @Description Spend is never stored; progress is computed from expenses in the date range
// @Tags budgets
// @Accept json
// @Produce json
// @Security UserID
// @Param request body CreateBudgetRequest true "Budget creation request"
// @Success 201 {object} BudgetResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var validationErrors []ValidationError
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "amount", Message: err.Error()})
	}
	start, err := parseDate(req.StartDate, h.loc)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "startDate", Message: err.Error()})
	}
	end, err := parseDate(req.EndDate, h.loc)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "endDate", Message: err.Error()})
	}
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Validation failed", validationErrors)
	}
	if len(req.EndDate) == len(dateLayout) {
		end = util.DayEnd(end, h.loc)
	}
	if req.Period == "" {
		req.Period = string(domain.BudgetPeriodMonthly)
	}

	budget, err := h.budgetService.CreateBudget(c.Request().Context(), userID, service.CreateBudgetInput{
		Name:       req.Name,
		Amount:     amount,
		Period:     domain.BudgetPeriod(req.Period),
		StartDate:  start,
		EndDate:    end,
		CategoryID: req.CategoryID,
		AccountID:  req.AccountID,
	})
	if err != nil {
		return respondError(c, err, "Failed to create budget")
	}
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets godoc
// @Summary List budgets with progress
// @Tags budgets
// @Produce json
// @Security UserID
// @Success 200 {array} BudgetResponse
// @Router /budgets [get]
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	budgets, err := h.budgetService.GetBudgets(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to get budgets")
	}

	response := make([]BudgetResponse, len(budgets))
	for i, budget := range budgets {
		response[i] = toBudgetResponse(budget)
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudget godoc
// @Summary Get a budget with progress
// @Tags budgets
// @Produce json
// @Security UserID
// @Param id path int true "Budget ID"
// @Success 200 {object} BudgetResponse
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudget(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get budget")
	}
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

func toBudgetResponse(b *domain.BudgetWithProgress) BudgetResponse {
	return BudgetResponse{
		ID:         b.ID,
		Name:       b.Name,
		Amount:     b.Amount.StringFixed(2),
		Period:     string(b.Period),
		StartDate:  b.StartDate.Format(time.RFC3339),
		EndDate:    b.EndDate.Format(time.RFC3339),
		CategoryID: b.CategoryID,
		AccountID:  b.AccountID,
		Spent:      b.Spent.StringFixed(2),
		Percentage: b.Percentage.StringFixed(2),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
}
