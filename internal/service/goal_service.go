package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalService handles savings goals
type GoalService struct {
	store       domain.Store
	aggregation *AggregationService
}

// NewGoalService creates a new GoalService
func NewGoalService(store domain.Store, aggregation *AggregationService) *GoalService {
	return &GoalService{store: store, aggregation: aggregation}
}

// CreateGoalInput holds the input for creating a goal
type CreateGoalInput struct {
	Name         string
	Description  *string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
	Category     domain.GoalCategory
	AccountID    *int32
}

// CreateGoal validates and stores a goal
func (s *GoalService) CreateGoal(ctx context.Context, userID uuid.UUID, input CreateGoalInput) (*domain.GoalWithProgress, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Description != nil && len(*input.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	if input.TargetAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.FitsScale(input.TargetAmount, domain.AmountScale) {
		return nil, domain.ErrAmountPrecision
	}
	category := input.Category
	if category == "" {
		category = domain.GoalCategoryOther
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidArgument
	}

	repos := s.store.Repos()
	if input.AccountID != nil {
		if _, err := repos.Accounts.GetByID(ctx, userID, *input.AccountID); err != nil {
			return nil, err
		}
	}

	goal, err := repos.Goals.Create(ctx, &domain.Goal{
		UserID:       userID,
		Name:         name,
		Description:  input.Description,
		TargetAmount: input.TargetAmount,
		TargetDate:   input.TargetDate,
		Category:     category,
		AccountID:    input.AccountID,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, userID, goal)
}

// GetGoals retrieves the user's active goals with progress
func (s *GoalService) GetGoals(ctx context.Context, userID uuid.UUID) ([]*domain.GoalWithProgress, error) {
	goals, err := s.store.Repos().Goals.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.GoalWithProgress, 0, len(goals))
	for _, g := range goals {
		gp, err := s.withProgress(ctx, userID, g)
		if err != nil {
			return nil, err
		}
		result = append(result, gp)
	}
	return result, nil
}

// DeleteGoal removes one of the user's goals. The linked account is untouched.
func (s *GoalService) DeleteGoal(ctx context.Context, userID uuid.UUID, id int32) error {
	return s.store.Repos().Goals.Delete(ctx, userID, id)
}

// withProgress reads the linked account's current balance; unlinked goals
// have saved nothing
func (s *GoalService) withProgress(ctx context.Context, userID uuid.UUID, goal *domain.Goal) (*domain.GoalWithProgress, error) {
	current := decimal.Zero
	if goal.AccountID != nil {
		account, err := s.store.Repos().Accounts.GetByID(ctx, userID, *goal.AccountID)
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
		case err != nil:
			return nil, err
		default:
			current = account.Balance
		}
	}
	return &domain.GoalWithProgress{Goal: goal, GoalProgress: s.aggregation.GoalProgress(goal, current)}, nil
}
