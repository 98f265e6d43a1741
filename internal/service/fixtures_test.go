package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ledger wires every ledger service to one in-memory store
type ledger struct {
	store        *testutil.MemoryStore
	prices       *testutil.MockPriceLookup
	events       *testutil.MockEventPublisher
	accounts     *AccountService
	transactions *TransactionService
	assets       *AssetService
	balances     *BalanceService
	aggregation  *AggregationService
	userID       uuid.UUID
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	store := testutil.NewMemoryStore()
	prices := testutil.NewMockPriceLookup()
	events := testutil.NewMockEventPublisher()
	rates := domain.DefaultRateTable()

	transactions := NewTransactionService(store)
	transactions.SetEventPublisher(events)
	assets := NewAssetService(store, prices)
	assets.SetEventPublisher(events)
	balances := NewBalanceService(store, rates)

	return &ledger{
		store:        store,
		prices:       prices,
		events:       events,
		accounts:     NewAccountService(store),
		transactions: transactions,
		assets:       assets,
		balances:     balances,
		aggregation:  NewAggregationService(store, balances, rates, time.UTC),
		userID:       uuid.New(),
	}
}

// openAccount creates an active PLN account funded through the journal
func (l *ledger) openAccount(t *testing.T, name string, accType domain.AccountType, balance string) *domain.Account {
	t.Helper()
	account, err := l.accounts.CreateAccount(context.Background(), l.userID, CreateAccountInput{
		Name:           name,
		Type:           accType,
		Currency:       "PLN",
		InitialBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return account
}

// seedAccount inserts an empty account created at createdAt
func (l *ledger) seedAccount(accType domain.AccountType, currency string, createdAt time.Time) *domain.Account {
	return l.store.AddAccount(domain.Account{
		UserID:    l.userID,
		Name:      string(accType),
		Type:      accType,
		Currency:  currency,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: createdAt,
	})
}

func (l *ledger) record(t *testing.T, accountID int32, typ domain.TransactionType, amount string, date time.Time) *domain.Transaction {
	t.Helper()
	txn, err := l.transactions.RecordTransaction(context.Background(), l.userID, RecordTransactionInput{
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Type:      typ,
		Date:      &date,
	})
	require.NoError(t, err)
	return txn
}

func (l *ledger) balance(t *testing.T, accountID int32) decimal.Decimal {
	t.Helper()
	account, ok := l.store.Account(accountID)
	require.True(t, ok)
	return account.Balance
}

// journalSum is Σ signed(amount) over every committed entry of an account
func (l *ledger) journalSum(accountID int32) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range l.store.Transactions() {
		if txn.AccountID == accountID {
			sum = sum.Add(txn.SignedAmount())
		}
	}
	return sum
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

// assertDecimal compares decimals by value so 130 equals 130.00
func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual.String(), msgAndArgs)
}
