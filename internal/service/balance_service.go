package service

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceService reconstructs past balances by replaying the journal
// backwards from the cached current balance
type BalanceService struct {
	store domain.Store
	rates domain.RateTable
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(store domain.Store, rates domain.RateTable) *BalanceService {
	return &BalanceService{store: store, rates: rates}
}

// BalanceAsOf returns the account balance at the end of instant date, in the
// account's own currency
func (s *BalanceService) BalanceAsOf(ctx context.Context, userID uuid.UUID, accountID int32, date time.Time) (decimal.Decimal, error) {
	repos := s.store.Repos()
	account, err := repos.Accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	balances, err := s.replay(ctx, repos, userID, []*domain.Account{account}, date)
	if err != nil {
		return decimal.Zero, err
	}
	return balances[account.ID], nil
}

// NetWorthAsOf sums every account's balance at date in the reporting currency
func (s *BalanceService) NetWorthAsOf(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.NetWorth, error) {
	byType, err := s.NetWorthByType(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, t := range byType {
		total = total.Add(t.Balance)
	}
	return &domain.NetWorth{
		Date:     date,
		Currency: s.rates.Base(),
		Total:    domain.RoundToCurrency(total, s.rates.Base()),
	}, nil
}

// NetWorthByType groups reconstructed balances at date by account type, in
// the reporting currency. Types without accounts are omitted.
func (s *BalanceService) NetWorthByType(ctx context.Context, userID uuid.UUID, date time.Time) ([]domain.TypeBalance, error) {
	repos := s.store.Repos()
	accounts, err := repos.Accounts.GetAllByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	balances, err := s.replay(ctx, repos, userID, accounts, date)
	if err != nil {
		return nil, err
	}

	totals := make(map[domain.AccountType]*domain.TypeBalance)
	for _, a := range accounts {
		tb, ok := totals[a.Type]
		if !ok {
			tb = &domain.TypeBalance{Type: a.Type, Balance: decimal.Zero}
			totals[a.Type] = tb
		}
		tb.Balance = tb.Balance.Add(s.rates.Convert(balances[a.ID], a.Currency))
		tb.AccountCount++
	}

	result := make([]domain.TypeBalance, 0, len(totals))
	for _, t := range domain.AccountTypes {
		if tb, ok := totals[t]; ok {
			tb.Balance = domain.RoundToCurrency(tb.Balance, s.rates.Base())
			result = append(result, *tb)
		}
	}
	return result, nil
}

// replay computes balance(D) = current − Σ signed(entries dated after D) for
// each account. Accounts created after D had nothing at D.
func (s *BalanceService) replay(ctx context.Context, repos domain.Repositories, userID uuid.UUID, accounts []*domain.Account, date time.Time) (map[int32]decimal.Decimal, error) {
	balances := make(map[int32]decimal.Decimal, len(accounts))
	var ids []int32
	for _, a := range accounts {
		if a.CreatedAt.After(date) {
			balances[a.ID] = decimal.Zero
			continue
		}
		balances[a.ID] = a.Balance
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return balances, nil
	}

	totals, err := repos.Transactions.TotalsByAccountAndType(ctx, domain.TransactionFilter{
		UserID:     userID,
		AccountIDs: ids,
		After:      &date,
	})
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		if _, ok := balances[t.AccountID]; !ok {
			continue
		}
		balances[t.AccountID] = balances[t.AccountID].Sub(t.Type.SignedAmount(t.Total))
	}
	return balances, nil
}
