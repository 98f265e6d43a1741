package service

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AggregationService answers budget, goal and monthly series queries from the
// journal. It never writes.
type AggregationService struct {
	store    domain.Store
	balances *BalanceService
	rates    domain.RateTable
	loc      *time.Location
	now      func() time.Time
}

// NewAggregationService creates a new AggregationService. Month boundaries
// are computed in loc.
func NewAggregationService(store domain.Store, balances *BalanceService, rates domain.RateTable, loc *time.Location) *AggregationService {
	if loc == nil {
		loc = time.UTC
	}
	return &AggregationService{
		store:    store,
		balances: balances,
		rates:    rates,
		loc:      loc,
		now:      time.Now,
	}
}

// BudgetProgress sums expense magnitudes inside the scope and compares them to the limit
func (s *AggregationService) BudgetProgress(ctx context.Context, userID uuid.UUID, scope domain.BudgetScope) (*domain.BudgetProgress, error) {
	filter := domain.TransactionFilter{
		UserID:     userID,
		Types:      []domain.TransactionType{domain.TransactionTypeExpense},
		CategoryID: scope.CategoryID,
		From:       &scope.StartDate,
		To:         &scope.EndDate,
	}
	if scope.AccountID != nil {
		filter.AccountIDs = []int32{*scope.AccountID}
	}

	spent, err := s.store.Repos().Transactions.Sum(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.BudgetProgress{
		Spent:      spent,
		Percentage: cappedPercentage(spent, scope.Limit),
	}, nil
}

// MonthlySeries returns one point per trailing calendar month, oldest first.
// months <= 0 selects the default window.
func (s *AggregationService) MonthlySeries(ctx context.Context, userID uuid.UUID, metric domain.SeriesMetric, months int) ([]domain.MonthPoint, error) {
	if metric != domain.SeriesMetricNetWorth && metric != domain.SeriesMetricDividends {
		return nil, domain.ErrInvalidMetric
	}
	if months <= 0 {
		months = domain.DefaultSeriesMonths
	}
	if months > domain.MaxSeriesMonths {
		months = domain.MaxSeriesMonths
	}

	var currencies map[int32]string
	if metric == domain.SeriesMetricDividends {
		var err error
		if currencies, err = s.accountCurrencies(ctx, userID); err != nil {
			return nil, err
		}
	}

	points := make([]domain.MonthPoint, 0, months)
	for _, start := range util.TrailingMonths(s.now(), months, s.loc) {
		end := util.MonthEnd(start, s.loc)

		var value decimal.Decimal
		switch metric {
		case domain.SeriesMetricNetWorth:
			nw, err := s.balances.NetWorthAsOf(ctx, userID, end)
			if err != nil {
				return nil, err
			}
			value = nw.Total
		case domain.SeriesMetricDividends:
			v, err := s.dividends(ctx, userID, start, end, currencies)
			if err != nil {
				return nil, err
			}
			value = v
		}

		points = append(points, domain.MonthPoint{
			Month: start.Format("2006-01"),
			Label: start.Format("Jan"),
			Value: value,
		})
	}
	return points, nil
}

// Summary reports net worth by type now and at the close of last year, with
// dividends received since January 1st. Year boundaries are taken in loc.
func (s *AggregationService) Summary(ctx context.Context, userID uuid.UUID) (*domain.Summary, error) {
	now := s.now().In(s.loc)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
	lastYearEnd := yearStart.Add(-time.Nanosecond)

	current, err := s.balances.NetWorthByType(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	previous, err := s.balances.NetWorthByType(ctx, userID, lastYearEnd)
	if err != nil {
		return nil, err
	}

	currencies, err := s.accountCurrencies(ctx, userID)
	if err != nil {
		return nil, err
	}
	dividends, err := s.dividends(ctx, userID, yearStart, now, currencies)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		AsOf:                now,
		Currency:            s.rates.Base(),
		NetWorthByType:      current,
		LastYearEnd:         lastYearEnd,
		LastYearNetWorth:    previous,
		DividendsYearToDate: dividends,
	}, nil
}

func (s *AggregationService) accountCurrencies(ctx context.Context, userID uuid.UUID) (map[int32]string, error) {
	accounts, err := s.store.Repos().Accounts.GetAllByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	currencies := make(map[int32]string, len(accounts))
	for _, a := range accounts {
		currencies[a.ID] = a.Currency
	}
	return currencies, nil
}

func (s *AggregationService) dividends(ctx context.Context, userID uuid.UUID, from, to time.Time, currencies map[int32]string) (decimal.Decimal, error) {
	totals, err := s.store.Repos().Transactions.TotalsByAccountAndType(ctx, domain.TransactionFilter{
		UserID: userID,
		Types:  []domain.TransactionType{domain.TransactionTypeDividend},
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(s.rates.Convert(t.Total, currencies[t.AccountID]))
	}
	return domain.RoundToCurrency(sum, s.rates.Base()), nil
}

// GoalProgress compares a goal's target with the current amount saved
func (s *AggregationService) GoalProgress(goal *domain.Goal, current decimal.Decimal) domain.GoalProgress {
	progress := domain.GoalProgress{
		CurrentAmount: current,
		Percentage:    cappedPercentage(current, goal.TargetAmount),
		Remaining:     decimal.Max(goal.TargetAmount.Sub(current), decimal.Zero),
	}
	if goal.TargetDate != nil {
		days := util.CeilDays(s.now(), *goal.TargetDate)
		progress.DaysLeft = &days
	}
	return progress
}

// cappedPercentage returns 100 × part / whole bounded to [0, 100]; a zero
// whole yields 0
func cappedPercentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() || !part.IsPositive() {
		return decimal.Zero
	}
	pct := part.Mul(hundred).Div(whole)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct.Round(2)
}
