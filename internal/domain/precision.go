package domain

import "github.com/shopspring/decimal"

// Column scales of the ledger schema. Money columns are NUMERIC(20,8);
// quantities and per-unit prices are NUMERIC(28,12).
const (
	AmountScale   int32 = 8
	QuantityScale int32 = 12
)

// FitsScale reports whether d has at most places decimal digits
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// RoundAmount rounds a computed money value to AmountScale, half away from
// zero like a NUMERIC cast does, so what is stored is what was checked.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// RoundUnit rounds a per-unit price or quantity to QuantityScale
func RoundUnit(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// TradeValue is quantity × price at money scale. Both the journal entry and
// the balance move by exactly this value.
func TradeValue(quantity, price decimal.Decimal) decimal.Decimal {
	return RoundAmount(quantity.Mul(price))
}
