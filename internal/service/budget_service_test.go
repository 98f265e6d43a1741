package service

import (
	"context"
	"testing"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBudget_ReturnsLiveProgress(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	svc := NewBudgetService(l.store, l.aggregation)
	account := l.seedAccount(domain.AccountTypeChecking, "PLN", day(2024, 1, 1))
	food := l.store.AddCategory(domain.Category{UserID: l.userID, Name: "Food"})

	date := day(2024, 3, 3)
	_, err := l.transactions.RecordTransaction(ctx, l.userID, RecordTransactionInput{
		AccountID: account.ID, Amount: dec("120"), Type: domain.TransactionTypeExpense, CategoryID: &food.ID, Date: &date,
	})
	require.NoError(t, err)

	budget, err := svc.CreateBudget(ctx, l.userID, CreateBudgetInput{
		Name:       "Groceries",
		Amount:     dec("400"),
		Period:     domain.BudgetPeriodMonthly,
		StartDate:  day(2024, 3, 1),
		EndDate:    day(2024, 3, 31),
		CategoryID: &food.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", budget.Name)
	assertDecimal(t, "120", budget.Spent)
	assertDecimal(t, "30", budget.Percentage)

	date = day(2024, 3, 10)
	_, err = l.transactions.RecordTransaction(ctx, l.userID, RecordTransactionInput{
		AccountID: account.ID, Amount: dec("80"), Type: domain.TransactionTypeExpense, CategoryID: &food.ID, Date: &date,
	})
	require.NoError(t, err)

	fetched, err := svc.GetBudget(ctx, l.userID, budget.ID)
	require.NoError(t, err)
	assertDecimal(t, "200", fetched.Spent)
	assertDecimal(t, "50", fetched.Percentage)

	all, err := svc.GetBudgets(ctx, l.userID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateBudget_Validation(t *testing.T) {
	l := newLedger(t)
	svc := NewBudgetService(l.store, l.aggregation)
	missing := int32(999)
	valid := CreateBudgetInput{
		Name: "B", Amount: dec("10"), Period: domain.BudgetPeriodMonthly,
		StartDate: day(2024, 3, 1), EndDate: day(2024, 3, 31),
	}

	tests := []struct {
		name   string
		mutate func(in *CreateBudgetInput)
		err    error
	}{
		{"no name", func(in *CreateBudgetInput) { in.Name = "" }, domain.ErrNameRequired},
		{"negative amount", func(in *CreateBudgetInput) { in.Amount = dec("-1") }, domain.ErrInvalidAmount},
		{"bad period", func(in *CreateBudgetInput) { in.Period = "daily" }, domain.ErrInvalidArgument},
		{"end before start", func(in *CreateBudgetInput) { in.EndDate = day(2024, 2, 1) }, domain.ErrInvalidDateRange},
		{"unknown category", func(in *CreateBudgetInput) { in.CategoryID = &missing }, domain.ErrCategoryNotFound},
		{"unknown account", func(in *CreateBudgetInput) { in.AccountID = &missing }, domain.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.CreateBudget(context.Background(), l.userID, in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGetBudget_OtherUser(t *testing.T) {
	l := newLedger(t)
	svc := NewBudgetService(l.store, l.aggregation)
	budget, err := svc.CreateBudget(context.Background(), l.userID, CreateBudgetInput{
		Name: "B", Amount: dec("10"), Period: domain.BudgetPeriodWeekly,
		StartDate: day(2024, 3, 1), EndDate: day(2024, 3, 7),
	})
	require.NoError(t, err)

	_, err = svc.GetBudget(context.Background(), uuid.New(), budget.ID)
	assert.ErrorIs(t, err, domain.ErrBudgetNotFound)
}
