package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceAsOf_ReplaysJournal(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	account := l.seedAccount(domain.AccountTypeChecking, "PLN", day(2024, 1, 1))

	l.record(t, account.ID, domain.TransactionTypeIncome, "1000", day(2024, 1, 10))
	l.record(t, account.ID, domain.TransactionTypeExpense, "200", day(2024, 2, 5))
	l.record(t, account.ID, domain.TransactionTypeIncome, "50", day(2024, 3, 1))

	tests := []struct {
		date     time.Time
		expected string
	}{
		{day(2024, 1, 1), "0"},
		{day(2024, 1, 10), "1000"},
		{day(2024, 1, 31), "1000"},
		{day(2024, 2, 29), "800"},
		{day(2024, 3, 1), "850"},
		{day(2030, 1, 1), "850"},
	}
	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			balance, err := l.balances.BalanceAsOf(ctx, l.userID, account.ID, tt.date)
			require.NoError(t, err)
			assertDecimal(t, tt.expected, balance)
		})
	}
}

func TestBalanceAsOf_BeforeAccountExisted(t *testing.T) {
	l := newLedger(t)
	account := l.seedAccount(domain.AccountTypeChecking, "PLN", day(2024, 1, 1))
	l.record(t, account.ID, domain.TransactionTypeIncome, "300", day(2024, 1, 2))

	balance, err := l.balances.BalanceAsOf(context.Background(), l.userID, account.ID, day(2023, 12, 31))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestBalanceAsOf_UnknownAccount(t *testing.T) {
	l := newLedger(t)

	_, err := l.balances.BalanceAsOf(context.Background(), l.userID, 42, time.Now())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

// Reconstructing at "now" must give back the cached balance for every account
func TestBalanceAsOf_NowMatchesCachedBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("30000"))
	checking := l.openAccount(t, "Checking", domain.AccountTypeChecking, "2500")
	crypto := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "5000")

	l.record(t, checking.ID, domain.TransactionTypeExpense, "120.35", time.Now())
	_, err := l.transactions.Transfer(ctx, l.userID, TransferInput{FromAccountID: checking.ID, ToAccountID: crypto.ID, Amount: dec("1000")})
	require.NoError(t, err)
	_, err = l.assets.Buy(ctx, l.userID, TradeInput{AccountID: crypto.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("31000")})
	require.NoError(t, err)

	now := time.Now().Add(time.Second)
	for _, a := range []*domain.Account{checking, crypto} {
		balance, err := l.balances.BalanceAsOf(ctx, l.userID, a.ID, now)
		require.NoError(t, err)
		assert.True(t, l.balance(t, a.ID).Equal(balance), "account %d", a.ID)
	}
}

func TestNetWorthByType_ConvertsAndGroups(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	created := day(2024, 1, 1)
	pln := l.seedAccount(domain.AccountTypeChecking, "PLN", created)
	eur := l.seedAccount(domain.AccountTypeSavings, "EUR", created)
	usd := l.seedAccount(domain.AccountTypeSavings, "USD", created)
	odd := l.seedAccount(domain.AccountTypeWallet, "JPY", created)

	l.record(t, pln.ID, domain.TransactionTypeIncome, "1000", day(2024, 1, 2))
	l.record(t, eur.ID, domain.TransactionTypeIncome, "100", day(2024, 1, 2))
	l.record(t, usd.ID, domain.TransactionTypeIncome, "10.01", day(2024, 1, 2))
	l.record(t, odd.ID, domain.TransactionTypeIncome, "7", day(2024, 1, 2))

	byType, err := l.balances.NetWorthByType(ctx, l.userID, day(2024, 6, 1))
	require.NoError(t, err)
	require.Len(t, byType, 3)

	assert.Equal(t, domain.AccountTypeChecking, byType[0].Type)
	assertDecimal(t, "1000", byType[0].Balance)
	assert.Equal(t, domain.AccountTypeSavings, byType[1].Type)
	assert.Equal(t, 2, byType[1].AccountCount)
	// 100 × 4.35 + 10.01 × 4.10 = 435 + 41.041, rounded to grosze
	assertDecimal(t, "476.04", byType[1].Balance)
	assert.Equal(t, domain.AccountTypeWallet, byType[2].Type)
	assertDecimal(t, "7", byType[2].Balance, "unknown rates count as base currency")

	netWorth, err := l.balances.NetWorthAsOf(ctx, l.userID, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "PLN", netWorth.Currency)
	assertDecimal(t, "1483.04", netWorth.Total)
}

func TestNetWorthAsOf_IncludesInactiveAccounts(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	account := l.seedAccount(domain.AccountTypeSavings, "PLN", day(2024, 1, 1))
	l.record(t, account.ID, domain.TransactionTypeIncome, "400", day(2024, 1, 5))
	_, err := l.accounts.DeactivateAccount(ctx, l.userID, account.ID)
	require.NoError(t, err)

	netWorth, err := l.balances.NetWorthAsOf(ctx, l.userID, day(2024, 2, 1))
	require.NoError(t, err)
	assertDecimal(t, "400", netWorth.Total)
}

func TestNetWorthAsOf_NoAccounts(t *testing.T) {
	l := newLedger(t)

	netWorth, err := l.balances.NetWorthAsOf(context.Background(), l.userID, time.Now())
	require.NoError(t, err)
	assert.True(t, netWorth.Total.IsZero())
}
