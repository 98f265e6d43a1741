package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
)

// DefaultAssetCurrency is the pricing currency of crypto positions
const DefaultAssetCurrency = "USD"

// Asset is an open position of one symbol inside one account
type Asset struct {
	ID           int32           `json:"id"`
	AccountID    int32           `json:"accountId"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Type         AssetType       `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgBuyPrice  decimal.Decimal `json:"avgBuyPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Currency     string          `json:"currency"`
	BuyDate      time.Time       `json:"buyDate"`
	LastUpdated  time.Time       `json:"lastUpdated"`
}

// Value is the market value of the position at its last known price
func (a *Asset) Value() decimal.Decimal {
	return a.CurrentPrice.Mul(a.Quantity)
}

// CostBasis is what the remaining quantity cost on average
func (a *Asset) CostBasis() decimal.Decimal {
	return a.AvgBuyPrice.Mul(a.Quantity)
}

// UnrealizedPnL is (currentPrice - avgBuyPrice) * quantity
func (a *Asset) UnrealizedPnL() decimal.Decimal {
	return a.CurrentPrice.Sub(a.AvgBuyPrice).Mul(a.Quantity)
}

// CanonicalSymbol normalises a ticker for storage and lookups
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// WeightedAverage returns the average cost after adding quantity, bought for
// cost in total, to an existing holding. Lots are not tracked. The result is
// rounded to QuantityScale.
func WeightedAverage(oldQuantity, oldAvg, quantity, cost decimal.Decimal) decimal.Decimal {
	newQuantity := oldQuantity.Add(quantity)
	if newQuantity.IsZero() {
		return decimal.Zero
	}
	return RoundUnit(oldQuantity.Mul(oldAvg).Add(cost).DivRound(newQuantity, QuantityScale+4))
}

// AssetPricePoint is one observed market price of a held asset
type AssetPricePoint struct {
	ID      int32           `json:"id"`
	AssetID int32           `json:"assetId"`
	Price   decimal.Decimal `json:"price"`
	Date    time.Time       `json:"date"`
}

type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) (*Asset, error)
	Get(ctx context.Context, accountID int32, symbol string) (*Asset, error)
	// GetForUpdate reads the position and locks its row for the rest of the atomic unit
	GetForUpdate(ctx context.Context, accountID int32, symbol string) (*Asset, error)
	Update(ctx context.Context, asset *Asset) (*Asset, error)
	Delete(ctx context.Context, id int32) error
	ListByAccount(ctx context.Context, accountID int32) ([]*Asset, error)
	// DistinctSymbols returns every symbol with at least one open position
	DistinctSymbols(ctx context.Context) ([]string, error)
	// UpdatePriceBySymbol refreshes the market price of every position in symbol
	// and returns the positions touched
	UpdatePriceBySymbol(ctx context.Context, symbol string, price decimal.Decimal, at time.Time) ([]*Asset, error)
}

type PriceHistoryRepository interface {
	Create(ctx context.Context, point *AssetPricePoint) error
	ListByAsset(ctx context.Context, assetID int32, limit int32) ([]*AssetPricePoint, error)
}
