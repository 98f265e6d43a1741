package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceLookup resolves the current market price of a symbol. Implementations
// may return any error; the core translates every failure to ErrPriceUnavailable.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// BatchPriceLookup resolves several symbols in one call. Symbols without a
// price are absent from the result.
type BatchPriceLookup interface {
	PriceLookup
	CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// MarketListing is one coin of the market-cap ranking, priced in USD
type MarketListing struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Image          string          `json:"image,omitempty"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	MarketCap      decimal.Decimal `json:"marketCap"`
	MarketCapRank  int             `json:"marketCapRank"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
}

// MarketLister lists the largest coins by market cap
type MarketLister interface {
	TopMarkets(ctx context.Context, limit int) ([]MarketListing, error)
}
