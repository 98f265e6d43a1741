package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name        string
		oldQuantity string
		oldAvg      string
		quantity    string
		cost        string
		expected    string
	}{
		{"fresh position", "0", "0", "2", "200", "100"},
		{"incremental average", "1", "100", "3", "420", "130"},
		{"same price", "5", "20", "5", "100", "20"},
		{"fractional crypto", "0.01", "50000", "0.01", "600", "55000"},
		{"repeating fraction rounds to unit scale", "0", "0", "3", "1", "0.333333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverage(
				decimal.RequireFromString(tt.oldQuantity),
				decimal.RequireFromString(tt.oldAvg),
				decimal.RequireFromString(tt.quantity),
				decimal.RequireFromString(tt.cost),
			)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestWeightedAverage_ZeroQuantity(t *testing.T) {
	got := WeightedAverage(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(10))
	assert.True(t, got.IsZero())
}

func TestTradeValue_RoundsHalfAwayFromZero(t *testing.T) {
	// 0.000001 × 50000.005 = 0.050000005, a tie at the eighth place
	got := TradeValue(decimal.RequireFromString("0.000001"), decimal.RequireFromString("50000.005"))
	assert.Equal(t, "0.05000001", got.String())

	got = TradeValue(decimal.RequireFromString("0.01"), decimal.RequireFromString("50000"))
	assert.Equal(t, "500", got.String())
}

func TestFitsScale(t *testing.T) {
	assert.True(t, FitsScale(decimal.RequireFromString("1.12345678"), AmountScale))
	assert.False(t, FitsScale(decimal.RequireFromString("1.123456789"), AmountScale))
	assert.True(t, FitsScale(decimal.RequireFromString("0.000000000001"), QuantityScale))
	assert.False(t, FitsScale(decimal.RequireFromString("0.0000000000001"), QuantityScale))
	assert.True(t, FitsScale(decimal.NewFromInt(42), 0))
}

func TestAssetValuation(t *testing.T) {
	asset := &Asset{
		Quantity:     decimal.NewFromInt(4),
		AvgBuyPrice:  decimal.NewFromInt(130),
		CurrentPrice: decimal.NewFromInt(150),
	}

	assert.Equal(t, "600", asset.Value().String())
	assert.Equal(t, "520", asset.CostBasis().String())
	assert.Equal(t, "80", asset.UnrealizedPnL().String())
}

func TestCanonicalSymbol(t *testing.T) {
	assert.Equal(t, "BTC", CanonicalSymbol(" btc "))
	assert.Equal(t, "1INCH", CanonicalSymbol("1inch"))
	assert.Equal(t, "", CanonicalSymbol("   "))
}
