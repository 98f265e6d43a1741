package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ReportingCurrency is the currency every cross-account rollup is expressed in
const ReportingCurrency = "PLN"

// NormalizeCurrency upper-cases an ISO 4217 code and rejects unknown ones
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

// RoundToCurrency rounds an amount to the minor unit of its currency
func RoundToCurrency(amount decimal.Decimal, code string) decimal.Decimal {
	c := money.GetCurrency(code)
	if c == nil {
		return amount.Round(2)
	}
	return amount.Round(int32(c.Fraction))
}

// RateTable converts account currencies into the reporting currency using
// static multipliers (1 unit of currency = rate units of the base).
type RateTable struct {
	base  string
	rates map[string]decimal.Decimal
}

// NewRateTable builds a table for base. The base always converts at 1.
func NewRateTable(base string, rates map[string]decimal.Decimal) RateTable {
	t := RateTable{base: strings.ToUpper(base), rates: make(map[string]decimal.Decimal, len(rates)+1)}
	for code, rate := range rates {
		t.rates[strings.ToUpper(code)] = rate
	}
	t.rates[t.base] = decimal.NewFromInt(1)
	return t
}

// DefaultRateTable returns the built-in PLN table
func DefaultRateTable() RateTable {
	return NewRateTable(ReportingCurrency, map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("4.35"),
		"USD": decimal.RequireFromString("4.10"),
		"GBP": decimal.RequireFromString("5.20"),
	})
}

// Base returns the reporting currency of the table
func (t RateTable) Base() string {
	return t.base
}

// Convert expresses amount in the base currency. Currencies without a rate
// are assumed to already be in the base currency.
func (t RateTable) Convert(amount decimal.Decimal, currency string) decimal.Decimal {
	rate, ok := t.rates[strings.ToUpper(currency)]
	if !ok {
		return amount
	}
	return amount.Mul(rate)
}

// FormatMoney renders amount with the currency's symbol and grouping, e.g.
// "1,234.50 zł"
func FormatMoney(amount decimal.Decimal, code string) string {
	c := money.GetCurrency(code)
	if c == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := RoundToCurrency(amount, c.Code).Shift(int32(c.Fraction)).IntPart()
	return money.New(minor, c.Code).Display()
}
