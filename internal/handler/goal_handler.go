package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// GoalHandler handles savings goal HTTP requests
type GoalHandler struct {
	goalService *service.GoalService
	loc         *time.Location
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService, loc *time.Location) *GoalHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &GoalHandler{goalService: goalService, loc: loc}
}

// CreateGoalRequest represents the create goal request body
type CreateGoalRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	TargetAmount string  `json:"targetAmount"`
	TargetDate   *string `json:"targetDate,omitempty"`
	Category     string  `json:"category"`
	AccountID    *int32  `json:"accountId,omitempty"`
}

// GoalResponse represents a goal with its progress
type GoalResponse struct {
	ID            int32   `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	TargetAmount  string  `json:"targetAmount"`
	TargetDate    *string `json:"targetDate,omitempty"`
	Category      string  `json:"category"`
	AccountID     *int32  `json:"accountId,omitempty"`
	CurrentAmount string  `json:"currentAmount"`
	Percentage    string  `json:"percentage"`
	Remaining     string  `json:"remaining"`
	DaysLeft      *int    `json:"daysLeft,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

// CreateGoal godoc
// @Summary Create a savings goal
// @Description Progress tracks the linked account balance
// @Tags goals
// @Accept json
// @Produce json
// @Security UserID
// @Param request body CreateGoalRequest true "Goal creation request"
// @Success 201 {object} GoalResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateGoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	target, err := parseAmount(req.TargetAmount, false)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "targetAmount", Message: err.Error()}})
	}
	var targetDate *time.Time
	if req.TargetDate != nil {
		if targetDate, err = parseOptionalDate(*req.TargetDate, h.loc); err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{{Field: "targetDate", Message: err.Error()}})
		}
	}

	goal, err := h.goalService.CreateGoal(c.Request().Context(), userID, service.CreateGoalInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: target,
		TargetDate:   targetDate,
		Category:     domain.GoalCategory(req.Category),
		AccountID:    req.AccountID,
	})
	if err != nil {
		return respondError(c, err, "Failed to create goal")
	}
	return c.JSON(http.StatusCreated, toGoalResponse(goal))
}

// GetGoals godoc
// @Summary List active goals with progress
// @Tags goals
// @Produce json
// @Security UserID
// @Success 200 {array} GoalResponse
// @Router /goals [get]
func (h *GoalHandler) GetGoals(c echo.Context) error {
	userID := middleware.GetUserID(c)

	goals, err := h.goalService.GetGoals(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to get goals")
	}

	response := make([]GoalResponse, len(goals))
	for i, goal := range goals {
		response[i] = toGoalResponse(goal)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags goals
// @Security UserID
// @Param id path int true "Goal ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	if err := h.goalService.DeleteGoal(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err, "Failed to delete goal")
	}
	return c.NoContent(http.StatusNoContent)
}

func toGoalResponse(g *domain.GoalWithProgress) GoalResponse {
	return GoalResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount.StringFixed(2),
		TargetDate:    formatOptionalTime(g.TargetDate),
		Category:      string(g.Category),
		AccountID:     g.AccountID,
		CurrentAmount: g.CurrentAmount.StringFixed(2),
		Percentage:    g.Percentage.StringFixed(2),
		Remaining:     g.Remaining.StringFixed(2),
		DaysLeft:      g.DaysLeft,
		CreatedAt:     g.CreatedAt.Format(time.RFC3339),
	}
}
