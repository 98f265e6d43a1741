package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SeriesMetric string

const (
	SeriesMetricNetWorth  SeriesMetric = "net_worth"
	SeriesMetricDividends SeriesMetric = "dividends"
)

// DefaultSeriesMonths is the trailing window used when none is requested
const DefaultSeriesMonths = 6

// MaxSeriesMonths bounds the trailing window of a series
const MaxSeriesMonths = 60

// MonthPoint is one bucket of a monthly series
type MonthPoint struct {
	Month string          `json:"month"` // 2006-01
	Label string          `json:"label"` // Jan
	Value decimal.Decimal `json:"value"`
}

// TypeBalance is the reporting-currency total of one account type
type TypeBalance struct {
	Type         AccountType     `json:"type"`
	Balance      decimal.Decimal `json:"balance"`
	AccountCount int             `json:"accountCount"`
}

// NetWorth is the user's converted total at a point in time
type NetWorth struct {
	Date     time.Time       `json:"date"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}

// PortfolioAsset is a position enriched with read-time valuation
type PortfolioAsset struct {
	*Asset
	Value decimal.Decimal `json:"value"`
	PnL   decimal.Decimal `json:"pnl"`
}

// Portfolio is the investment view of one account
type Portfolio struct {
	AccountID      int32             `json:"accountId"`
	AccountBalance decimal.Decimal   `json:"accountBalance"`
	TotalValue     decimal.Decimal   `json:"totalValue"`
	TotalPnL       decimal.Decimal   `json:"totalPnl"`
	Assets         []*PortfolioAsset `json:"assets"`
}

// TradeResult is returned by buy and sell
type TradeResult struct {
	Transaction    *Transaction    `json:"transaction"`
	Position       *Asset          `json:"position,omitempty"`
	Closed         bool            `json:"closed"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
}

// Summary is the year-to-date overview of the reports page
type Summary struct {
	AsOf                time.Time       `json:"asOf"`
	Currency            string          `json:"currency"`
	NetWorthByType      []TypeBalance   `json:"netWorthByType"`
	LastYearEnd         time.Time       `json:"lastYearEnd"`
	LastYearNetWorth    []TypeBalance   `json:"lastYearNetWorth"`
	DividendsYearToDate decimal.Decimal `json:"dividendsYearToDate"`
}
