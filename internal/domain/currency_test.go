package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	_, err = NormalizeCurrency("XYZ1")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NormalizeCurrency("")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestRateTableConvert(t *testing.T) {
	table := DefaultRateTable()

	assert.Equal(t, "PLN", table.Base())
	assert.Equal(t, "410", table.Convert(decimal.NewFromInt(100), "USD").String())
	assert.Equal(t, "435", table.Convert(decimal.NewFromInt(100), "eur").String())
	assert.Equal(t, "100", table.Convert(decimal.NewFromInt(100), "PLN").String())
	// Unknown currencies are assumed to already be in the base currency
	assert.Equal(t, "100", table.Convert(decimal.NewFromInt(100), "CHF").String())
}

func TestNewRateTable_BaseAlwaysOne(t *testing.T) {
	table := NewRateTable("eur", map[string]decimal.Decimal{"EUR": decimal.NewFromInt(3)})
	assert.Equal(t, "7", table.Convert(decimal.NewFromInt(7), "EUR").String())
}

func TestRoundToCurrency(t *testing.T) {
	assert.Equal(t, "10.13", RoundToCurrency(decimal.RequireFromString("10.125"), "PLN").String())
	assert.Equal(t, "1000", RoundToCurrency(decimal.RequireFromString("999.6"), "JPY").String())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.495"), "USD"))
	assert.Equal(t, "-$12.00", FormatMoney(decimal.NewFromInt(-12), "USD"))
	assert.Equal(t, "5.00 XYZ", FormatMoney(decimal.NewFromInt(5), "XYZ"))
}
