package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuySell_RoundTrip(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("51000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")

	bought, err := l.assets.Buy(ctx, l.userID, TradeInput{
		AccountID: account.ID, Symbol: "btc", Quantity: dec("0.01"), Price: dec("50000"),
	})
	require.NoError(t, err)
	assertDecimal(t, "500", bought.AccountBalance)
	assertDecimal(t, "500", l.balance(t, account.ID))
	assert.Equal(t, domain.TransactionTypeInvestment, bought.Transaction.Type)
	assertDecimal(t, "500", bought.Transaction.Amount)
	assert.Equal(t, "Purchase of 0.01 BTC at $50000", bought.Transaction.Description)
	require.NotNil(t, bought.Position)
	assert.Equal(t, "BTC", bought.Position.Symbol)
	assertDecimal(t, "0.01", bought.Position.Quantity)
	assertDecimal(t, "50000", bought.Position.AvgBuyPrice)
	assertDecimal(t, "51000", bought.Position.CurrentPrice)

	sold, err := l.assets.Sell(ctx, l.userID, TradeInput{
		AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("60000"),
	})
	require.NoError(t, err)
	assertDecimal(t, "1100", sold.AccountBalance)
	assertDecimal(t, "1100", l.balance(t, account.ID))
	assert.Equal(t, domain.TransactionTypeInvestmentSale, sold.Transaction.Type)
	assertDecimal(t, "600", sold.Transaction.Amount)
	assert.True(t, sold.Closed)
	assert.Nil(t, sold.Position)

	_, held := l.store.Position(account.ID, "BTC")
	assert.False(t, held, "position sold down to zero is removed")
	assert.True(t, l.balance(t, account.ID).Equal(l.journalSum(account.ID)))

	assert.Equal(t, []string{
		"transaction.created", "position.updated",
		"transaction.created", "position.closed",
	}, l.events.EventTypes())
}

func TestBuy_InsufficientFundsChangesNothing(t *testing.T) {
	l := newLedger(t)
	l.prices.SetPrice("ETH", dec("2000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "100")
	before := len(l.store.Transactions())

	_, err := l.assets.Buy(context.Background(), l.userID, TradeInput{
		AccountID: account.ID, Symbol: "ETH", Quantity: dec("1"), Price: dec("2000"),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	var funds domain.InsufficientFundsError
	require.True(t, errors.As(err, &funds))
	assertDecimal(t, "2000", funds.Required)
	assertDecimal(t, "100", funds.Available)
	assertDecimal(t, "1900", funds.Shortfall())

	assertDecimal(t, "100", l.balance(t, account.ID))
	assert.Len(t, l.store.Transactions(), before)
	_, held := l.store.Position(account.ID, "ETH")
	assert.False(t, held)
	assert.Empty(t, l.events.Events())
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("SOL", dec("150"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")

	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "SOL", Quantity: dec("2"), Price: dec("100")})
	require.NoError(t, err)
	result, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "SOL", Quantity: dec("2"), Price: dec("160")})
	require.NoError(t, err)

	assertDecimal(t, "4", result.Position.Quantity)
	assertDecimal(t, "130", result.Position.AvgBuyPrice)
	assertDecimal(t, "480", l.balance(t, account.ID))
}

func TestSell_PartialKeepsAverage(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("SOL", dec("150"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "SOL", Quantity: dec("4"), Price: dec("100")})
	require.NoError(t, err)

	l.prices.SetPrice("SOL", dec("210"))
	result, err := l.assets.Sell(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "SOL", Quantity: dec("1.5"), Price: dec("200")})
	require.NoError(t, err)

	assert.False(t, result.Closed)
	assertDecimal(t, "2.5", result.Position.Quantity)
	assertDecimal(t, "100", result.Position.AvgBuyPrice)
	assertDecimal(t, "210", result.Position.CurrentPrice)
	assertDecimal(t, "900", l.balance(t, account.ID))
}

func TestSell_MoreThanHeld(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("50000")})
	require.NoError(t, err)

	_, err = l.assets.Sell(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.02"), Price: dec("50000")})
	require.ErrorIs(t, err, domain.ErrInsufficientPosition)
	var pos domain.InsufficientPositionError
	require.True(t, errors.As(err, &pos))
	assertDecimal(t, "0.01", pos.Held)

	_, err = l.assets.Sell(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "DOGE", Quantity: dec("1"), Price: dec("1")})
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)

	assertDecimal(t, "500", l.balance(t, account.ID))
}

func TestTrade_Validation(t *testing.T) {
	l := newLedger(t)
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")

	tests := []struct {
		name  string
		input TradeInput
		err   error
	}{
		{"empty symbol", TradeInput{AccountID: account.ID, Symbol: " ", Quantity: dec("1"), Price: dec("1")}, domain.ErrInvalidSymbol},
		{"zero quantity", TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0"), Price: dec("1")}, domain.ErrInvalidQuantity},
		{"negative price", TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("1"), Price: dec("-1")}, domain.ErrInvalidPrice},
		{"quantity below unit scale", TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.0000000000001"), Price: dec("50000")}, domain.ErrQuantityPrecision},
		{"price below unit scale", TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("1"), Price: dec("0.0000000000001")}, domain.ErrPricePrecision},
		{"value rounds to zero", TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.000001"), Price: dec("0.000001")}, domain.ErrTradeTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.assets.Buy(context.Background(), l.userID, tt.input)
			assert.ErrorIs(t, err, tt.err)
			_, err = l.assets.Sell(context.Background(), l.userID, tt.input)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuy_TieValueKeepsBalanceAndJournalInStep(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")

	// 0.000001 × 50000.005 = 0.050000005, half a unit past money scale
	bought, err := l.assets.Buy(ctx, l.userID, TradeInput{
		AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.000001"), Price: dec("50000.005"),
	})
	require.NoError(t, err)
	assertDecimal(t, "0.05000001", bought.Transaction.Amount)
	assertDecimal(t, "999.94999999", bought.AccountBalance)
	assertDecimal(t, "999.94999999", l.balance(t, account.ID))
	assertDecimal(t, "50000.005", bought.Position.AvgBuyPrice)

	_, err = l.assets.Buy(ctx, l.userID, TradeInput{
		AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.000003"), Price: dec("50000.005"),
	})
	require.NoError(t, err)
	sold, err := l.assets.Sell(ctx, l.userID, TradeInput{
		AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.000001"), Price: dec("50000.015"),
	})
	require.NoError(t, err)
	assertDecimal(t, "0.05000002", sold.Transaction.Amount)

	assert.True(t, l.balance(t, account.ID).Equal(l.journalSum(account.ID)),
		"balance %s, journal %s", l.balance(t, account.ID), l.journalSum(account.ID))
	for _, txn := range l.store.Transactions() {
		assert.True(t, domain.FitsScale(txn.Amount, domain.AmountScale), "amount %s", txn.Amount)
	}
}

func TestBuy_PriceUnavailableChangesNothing(t *testing.T) {
	l := newLedger(t)
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	commits := l.store.Commits()

	_, err := l.assets.Buy(context.Background(), l.userID, TradeInput{
		AccountID: account.ID, Symbol: "NOPE", Quantity: dec("1"), Price: dec("10"),
	})
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	l.prices.SetPrice("ZERO", dec("0"))
	_, err = l.assets.Buy(context.Background(), l.userID, TradeInput{
		AccountID: account.ID, Symbol: "ZERO", Quantity: dec("1"), Price: dec("10"),
	})
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	assert.Equal(t, commits, l.store.Commits())
	assertDecimal(t, "1000", l.balance(t, account.ID))
}

func TestSell_PriceUnavailableChangesNothing(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("50000")})
	require.NoError(t, err)

	l.prices.Err = errors.New("upstream 429")
	_, err = l.assets.Sell(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("60000")})
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	position, held := l.store.Position(account.ID, "BTC")
	require.True(t, held)
	assertDecimal(t, "0.01", position.Quantity)
	assertDecimal(t, "500", l.balance(t, account.ID))
}

func TestBuy_StoreFailureIsAtomic(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "2000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("50000")})
	require.NoError(t, err)
	before := len(l.store.Transactions())

	l.store.FailOn("Assets.Update", errors.New("deadlock detected"))
	_, err = l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("40000")})

	assert.ErrorIs(t, err, domain.ErrAtomicityFailure)
	assertDecimal(t, "1500", l.balance(t, account.ID))
	assert.Len(t, l.store.Transactions(), before)
	position, _ := l.store.Position(account.ID, "BTC")
	assertDecimal(t, "0.01", position.Quantity)
	assertDecimal(t, "50000", position.AvgBuyPrice)
}

func TestSell_StoreFailureIsAtomic(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("50000")})
	require.NoError(t, err)

	l.store.FailOn("Assets.Delete", errors.New("connection lost"))
	_, err = l.assets.Sell(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("60000")})

	assert.ErrorIs(t, err, domain.ErrAtomicityFailure)
	assertDecimal(t, "500", l.balance(t, account.ID))
	_, held := l.store.Position(account.ID, "BTC")
	assert.True(t, held)
}

func TestBuy_InactiveAccount(t *testing.T) {
	l := newLedger(t)
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")
	_, err := l.accounts.DeactivateAccount(context.Background(), l.userID, account.ID)
	require.NoError(t, err)

	_, err = l.assets.Buy(context.Background(), l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.01"), Price: dec("50000")})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestBuy_ConcurrentPurchasesCannotOverdraw(t *testing.T) {
	l := newLedger(t)
	l.prices.SetPrice("ETH", dec("2000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "1000")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.assets.Buy(context.Background(), l.userID, TradeInput{
				AccountID: account.ID, Symbol: "ETH", Quantity: dec("0.3"), Price: dec("1000"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}
	assert.Equal(t, 3, succeeded)
	assertDecimal(t, "100", l.balance(t, account.ID))
	position, _ := l.store.Position(account.ID, "ETH")
	assertDecimal(t, "0.9", position.Quantity)
}

func TestPortfolio_Valuation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	l.prices.SetPrice("ETH", dec("2500"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "10000")

	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("40000")})
	require.NoError(t, err)
	_, err = l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "ETH", Quantity: dec("1"), Price: dec("3000")})
	require.NoError(t, err)

	portfolio, err := l.assets.Portfolio(ctx, l.userID, account.ID)
	require.NoError(t, err)

	require.Len(t, portfolio.Assets, 2)
	assertDecimal(t, "3000", portfolio.AccountBalance)
	assertDecimal(t, "7500", portfolio.TotalValue)
	// BTC +1000, ETH -500
	assertDecimal(t, "500", portfolio.TotalPnL)
}
