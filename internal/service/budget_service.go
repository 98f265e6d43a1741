package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetService handles budget definitions. Spend is always computed by the
// AggregationService at read time.
type BudgetService struct {
	store       domain.Store
	aggregation *AggregationService
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(store domain.Store, aggregation *AggregationService) *BudgetService {
	return &BudgetService{store: store, aggregation: aggregation}
}

// CreateBudgetInput holds the input for creating a budget
type CreateBudgetInput struct {
	Name       string
	Amount     decimal.Decimal
	Period     domain.BudgetPeriod
	StartDate  time.Time
	EndDate    time.Time
	CategoryID *int32
	AccountID  *int32
}

// CreateBudget validates and stores a budget
func (s *BudgetService) CreateBudget(ctx context.Context, userID uuid.UUID, input CreateBudgetInput) (*domain.BudgetWithProgress, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.FitsScale(input.Amount, domain.AmountScale) {
		return nil, domain.ErrAmountPrecision
	}
	if !input.Period.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	repos := s.store.Repos()
	if input.CategoryID != nil {
		if _, err := repos.Categories.GetByID(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}
	if input.AccountID != nil {
		if _, err := repos.Accounts.GetByID(ctx, userID, *input.AccountID); err != nil {
			return nil, err
		}
	}

	budget, err := repos.Budgets.Create(ctx, &domain.Budget{
		UserID:     userID,
		Name:       name,
		Amount:     input.Amount,
		Period:     input.Period,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		CategoryID: input.CategoryID,
		AccountID:  input.AccountID,
	})
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, userID, budget)
}

// GetBudgets retrieves the user's budgets with their current spend
func (s *BudgetService) GetBudgets(ctx context.Context, userID uuid.UUID) ([]*domain.BudgetWithProgress, error) {
	budgets, err := s.store.Repos().Budgets.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.BudgetWithProgress, 0, len(budgets))
	for _, b := range budgets {
		bp, err := s.withProgress(ctx, userID, b)
		if err != nil {
			return nil, err
		}
		result = append(result, bp)
	}
	return result, nil
}

// GetBudget retrieves one budget with its current spend
func (s *BudgetService) GetBudget(ctx context.Context, userID uuid.UUID, id int32) (*domain.BudgetWithProgress, error) {
	budget, err := s.store.Repos().Budgets.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, userID, budget)
}

func (s *BudgetService) withProgress(ctx context.Context, userID uuid.UUID, budget *domain.Budget) (*domain.BudgetWithProgress, error) {
	progress, err := s.aggregation.BudgetProgress(ctx, userID, budget.Scope())
	if err != nil {
		return nil, err
	}
	return &domain.BudgetWithProgress{Budget: budget, BudgetProgress: *progress}, nil
}
