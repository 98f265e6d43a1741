package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPriceService(t *testing.T) (*ledger, *PriceService) {
	l := newLedger(t)
	svc := NewPriceService(l.store, l.prices, zerolog.Nop())
	svc.SetEventPublisher(l.events)
	return l, svc
}

func TestRefreshPrices_UpdatesPositionsAndHistory(t *testing.T) {
	l, svc := setupPriceService(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	l.prices.SetPrice("ETH", dec("2000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "10000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("50000")})
	require.NoError(t, err)
	_, err = l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "ETH", Quantity: dec("1"), Price: dec("2000")})
	require.NoError(t, err)
	balance := l.balance(t, account.ID)

	l.prices.SetPrice("BTC", dec("55000"))
	delete(l.prices.Prices, "ETH")
	at := day(2024, 7, 1)
	svc.now = func() time.Time { return at }

	result, err := svc.RefreshPrices(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Symbols)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Positions)
	assert.Equal(t, []string{"ETH"}, result.Missing)
	assert.Zero(t, result.Errors)

	btc, _ := l.store.Position(account.ID, "BTC")
	assertDecimal(t, "55000", btc.CurrentPrice)
	assert.Equal(t, at, btc.LastUpdated)
	eth, _ := l.store.Position(account.ID, "ETH")
	assertDecimal(t, "2000", eth.CurrentPrice)

	points := l.store.PricePoints()
	require.Len(t, points, 1)
	assert.Equal(t, btc.ID, points[0].AssetID)
	assertDecimal(t, "55000", points[0].Price)

	assert.True(t, balance.Equal(l.balance(t, account.ID)), "price refresh never moves balances")

	events := l.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, "price.refreshed", last.Event.Type)
	assert.Equal(t, l.userID, last.UserID)
}

func TestRefreshPrices_NoPositions(t *testing.T) {
	l, svc := setupPriceService(t)

	result, err := svc.RefreshPrices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Symbols)
	assert.Zero(t, l.prices.Calls())
}

func TestRefreshPrices_SourceFailure(t *testing.T) {
	l, svc := setupPriceService(t)
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "10000")
	_, err := l.assets.Buy(context.Background(), l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("50000")})
	require.NoError(t, err)

	l.prices.Err = errors.New("rate limited")
	_, err = svc.RefreshPrices(context.Background())
	assert.Error(t, err)
	assert.Empty(t, l.store.PricePoints())
}

func TestRefreshPrices_StoreFailureCountsAndContinues(t *testing.T) {
	l, svc := setupPriceService(t)
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "10000")
	_, err := l.assets.Buy(context.Background(), l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("50000")})
	require.NoError(t, err)

	l.store.FailOn("PriceHistory.Create", errors.New("disk full"))
	l.prices.SetPrice("BTC", dec("60000"))
	result, err := svc.RefreshPrices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Errors)
	assert.Zero(t, result.Updated)
	btc, _ := l.store.Position(account.ID, "BTC")
	assertDecimal(t, "50000", btc.CurrentPrice, "price update rolled back with its history row")
}

func TestPriceHistory_NewestFirstAndLimited(t *testing.T) {
	l, svc := setupPriceService(t)
	ctx := context.Background()
	l.prices.SetPrice("BTC", dec("50000"))
	account := l.openAccount(t, "Crypto", domain.AccountTypeCrypto, "10000")
	_, err := l.assets.Buy(ctx, l.userID, TradeInput{AccountID: account.ID, Symbol: "BTC", Quantity: dec("0.1"), Price: dec("50000")})
	require.NoError(t, err)

	for i, price := range []string{"51000", "52000", "53000"} {
		l.prices.SetPrice("BTC", dec(price))
		at := day(2024, 7, 1+i)
		svc.now = func() time.Time { return at }
		_, err := svc.RefreshPrices(ctx)
		require.NoError(t, err)
	}

	points, err := l.assets.PriceHistory(ctx, l.userID, account.ID, "btc", 0)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assertDecimal(t, "53000", points[0].Price)
	assert.Equal(t, day(2024, 7, 3), points[0].Date)
	assertDecimal(t, "51000", points[2].Price)

	points, err = l.assets.PriceHistory(ctx, l.userID, account.ID, "BTC", 2)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = l.assets.PriceHistory(ctx, l.userID, account.ID, "ETH", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.assets.PriceHistory(ctx, l.userID, account.ID, " ", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
}
