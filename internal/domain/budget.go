package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Valid reports whether p is a known budget period
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly:
		return true
	}
	return false
}

// Budget is a spend limit over a date range. Spend is never stored.
type Budget struct {
	ID         int32           `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Period     BudgetPeriod    `json:"period"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	CategoryID *int32          `json:"categoryId,omitempty"`
	AccountID  *int32          `json:"accountId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Scope returns the aggregation scope of the budget
func (b *Budget) Scope() BudgetScope {
	return BudgetScope{
		CategoryID: b.CategoryID,
		AccountID:  b.AccountID,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		Limit:      b.Amount,
	}
}

// BudgetScope selects the expenses counted against a limit
type BudgetScope struct {
	CategoryID *int32
	AccountID  *int32
	StartDate  time.Time
	EndDate    time.Time
	Limit      decimal.Decimal
}

// BudgetProgress is computed at query time
type BudgetProgress struct {
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BudgetWithProgress pairs a budget with its current spend
type BudgetWithProgress struct {
	*Budget
	BudgetProgress
}

type BudgetRepository interface {
	Create(ctx context.Context, budget *Budget) (*Budget, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Budget, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
}
