package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// InvestmentHandler handles trades, portfolios, price history and the market listing
type InvestmentHandler struct {
	assetService *service.AssetService
	markets      domain.MarketLister
}

// NewInvestmentHandler creates a new InvestmentHandler. markets may be nil,
// which disables the market listing.
func NewInvestmentHandler(assetService *service.AssetService, markets domain.MarketLister) *InvestmentHandler {
	return &InvestmentHandler{assetService: assetService, markets: markets}
}

// DefaultMarketListing is how many coins GetMarkets returns without a limit
const DefaultMarketListing = 50

// TradeRequest represents a buy or sell request body
type TradeRequest struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// PositionResponse represents an open position
type PositionResponse struct {
	ID           int32  `json:"id"`
	AccountID    int32  `json:"accountId"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Quantity     string `json:"quantity"`
	AvgBuyPrice  string `json:"avgBuyPrice"`
	CurrentPrice string `json:"currentPrice"`
	Currency     string `json:"currency"`
	Value        string `json:"value"`
	PnL          string `json:"pnl"`
	BuyDate      string `json:"buyDate"`
	LastUpdated  string `json:"lastUpdated"`
}

// TradeResponse is the outcome of a buy or sell
type TradeResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	Position       *PositionResponse   `json:"position,omitempty"`
	Closed         bool                `json:"closed"`
	AccountBalance string              `json:"accountBalance"`
}

// PortfolioResponse values every position of an account
type PortfolioResponse struct {
	AccountID      int32              `json:"accountId"`
	AccountBalance string             `json:"accountBalance"`
	TotalValue     string             `json:"totalValue"`
	TotalPnL       string             `json:"totalPnl"`
	Assets         []PositionResponse `json:"assets"`
}

// Buy godoc
// @Summary Buy an asset
// @Description Debits quantity x price from the account and grows the position at a weighted-average cost
// @Tags investments
// @Accept json
// @Produce json
// @Security UserID
// @Param accountId path int true "Account ID"
// @Param request body TradeRequest true "Trade request"
// @Success 201 {object} TradeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /investments/{accountId}/buy [post]
func (h *InvestmentHandler) Buy(c echo.Context) error {
	return h.trade(c, "buy", h.assetService.Buy)
}

// Sell godoc
// @Summary Sell an asset
// @Description Credits quantity x price to the account; a position sold to zero is closed
// @Tags investments
// @Accept json
// @Produce json
// @Security UserID
// @Param accountId path int true "Account ID"
// @Param request body TradeRequest true "Trade request"
// @Success 201 {object} TradeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /investments/{accountId}/sell [post]
func (h *InvestmentHandler) Sell(c echo.Context) error {
	return h.trade(c, "sell", h.assetService.Sell)
}

type tradeFunc func(ctx context.Context, userID uuid.UUID, input service.TradeInput) (*domain.TradeResult, error)

func (h *InvestmentHandler) trade(c echo.Context, side string, do tradeFunc) error {
	userID := middleware.GetUserID(c)
	accountID, err := parseIDParam(c, "accountId")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req TradeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var validationErrors []ValidationError
	quantity, err := parseAmount(req.Quantity, false)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "quantity", Message: err.Error()})
	}
	price, err := parseAmount(req.Price, false)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "price", Message: err.Error()})
	}
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Validation failed", validationErrors)
	}

	result, err := do(c.Request().Context(), userID, service.TradeInput{
		AccountID: accountID,
		Symbol:    req.Symbol,
		Name:      req.Name,
		Quantity:  quantity,
		Price:     price,
	})
	if err != nil {
		return respondError(c, err, "Failed to "+side+" asset")
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("account_id", accountID).
		Str("side", side).
		Str("symbol", req.Symbol).
		Str("quantity", quantity.String()).
		Str("price", price.String()).
		Bool("closed", result.Closed).
		Msg("Trade executed")

	resp := TradeResponse{
		Transaction:    toTransactionResponse(result.Transaction),
		Closed:         result.Closed,
		AccountBalance: result.AccountBalance.StringFixed(2),
	}
	if result.Position != nil {
		position := toPositionResponse(result.Position)
		resp.Position = &position
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetPortfolio godoc
// @Summary Portfolio of an account
// @Description Values open positions at their last known price
// @Tags investments
// @Produce json
// @Security UserID
// @Param accountId path int true "Account ID"
// @Success 200 {object} PortfolioResponse
// @Failure 404 {object} ProblemDetails
// @Router /investments/{accountId}/portfolio [get]
func (h *InvestmentHandler) GetPortfolio(c echo.Context) error {
	userID := middleware.GetUserID(c)
	accountID, err := parseIDParam(c, "accountId")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	portfolio, err := h.assetService.Portfolio(c.Request().Context(), userID, accountID)
	if err != nil {
		return respondError(c, err, "Failed to get portfolio")
	}

	assets := make([]PositionResponse, len(portfolio.Assets))
	for i, a := range portfolio.Assets {
		assets[i] = toPositionResponse(a.Asset)
	}
	return c.JSON(http.StatusOK, PortfolioResponse{
		AccountID:      portfolio.AccountID,
		AccountBalance: portfolio.AccountBalance.StringFixed(2),
		TotalValue:     portfolio.TotalValue.StringFixed(2),
		TotalPnL:       portfolio.TotalPnL.StringFixed(2),
		Assets:         assets,
	})
}

// PricePointResponse is one recorded market price
type PricePointResponse struct {
	Price string `json:"price"`
	Date  string `json:"date"`
}

// PriceHistoryResponse lists recorded prices of a position, newest first
type PriceHistoryResponse struct {
	AccountID int32                `json:"accountId"`
	Symbol    string               `json:"symbol"`
	Points    []PricePointResponse `json:"points"`
}

// GetPriceHistory godoc
// @Summary Price history of a position
// @Description Prices recorded by the background refresh, newest first
// @Tags investments
// @Produce json
// @Security UserID
// @Param accountId path int true "Account ID"
// @Param symbol path string true "Asset symbol"
// @Param limit query int false "Number of points" default(50)
// @Success 200 {object} PriceHistoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /investments/{accountId}/assets/{symbol}/history [get]
func (h *InvestmentHandler) GetPriceHistory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	accountID, err := parseIDParam(c, "accountId")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}
	limit, err := parseOptionalID(c.QueryParam("limit"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "limit", Message: err.Error()}})
	}
	var n int32
	if limit != nil {
		n = *limit
	}

	points, err := h.assetService.PriceHistory(c.Request().Context(), userID, accountID, c.Param("symbol"), n)
	if err != nil {
		return respondError(c, err, "Failed to get price history")
	}

	resp := PriceHistoryResponse{
		AccountID: accountID,
		Symbol:    domain.CanonicalSymbol(c.Param("symbol")),
		Points:    make([]PricePointResponse, len(points)),
	}
	for i, p := range points {
		resp.Points[i] = PricePointResponse{Price: p.Price.String(), Date: p.Date.Format(time.RFC3339)}
	}
	return c.JSON(http.StatusOK, resp)
}

// MarketResponse is one coin of the market-cap ranking
type MarketResponse struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	CurrentPrice   string `json:"currentPrice"`
	MarketCap      string `json:"marketCap"`
	MarketCapRank  int    `json:"marketCapRank"`
	PriceChange24h string `json:"priceChange24h"`
}

// GetMarkets godoc
// @Summary Top cryptocurrencies by market cap
// @Description USD prices from the market data provider
// @Tags investments
// @Produce json
// @Security UserID
// @Param limit query int false "Number of coins" default(50)
// @Success 200 {array} MarketResponse
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /investments/markets [get]
func (h *InvestmentHandler) GetMarkets(c echo.Context) error {
	limit, err := parseOptionalID(c.QueryParam("limit"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "limit", Message: err.Error()}})
	}
	n := DefaultMarketListing
	if limit != nil {
		n = int(*limit)
	}
	if h.markets == nil {
		return respondError(c, fmt.Errorf("%w: no market data source configured", domain.ErrPriceUnavailable), "Failed to list markets")
	}

	listing, err := h.markets.TopMarkets(c.Request().Context(), n)
	if err != nil {
		return respondError(c, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err), "Failed to list markets")
	}

	resp := make([]MarketResponse, len(listing))
	for i, m := range listing {
		resp[i] = MarketResponse{
			ID:             m.ID,
			Symbol:         m.Symbol,
			Name:           m.Name,
			Image:          m.Image,
			CurrentPrice:   m.CurrentPrice.String(),
			MarketCap:      m.MarketCap.String(),
			MarketCapRank:  m.MarketCapRank,
			PriceChange24h: m.PriceChange24h.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func toPositionResponse(a *domain.Asset) PositionResponse {
	return PositionResponse{
		ID:           a.ID,
		AccountID:    a.AccountID,
		Symbol:       a.Symbol,
		Name:         a.Name,
		Type:         string(a.Type),
		Quantity:     a.Quantity.String(),
		AvgBuyPrice:  a.AvgBuyPrice.String(),
		CurrentPrice: a.CurrentPrice.String(),
		Currency:     a.Currency,
		Value:        a.Value().StringFixed(2),
		PnL:          a.UnrealizedPnL().StringFixed(2),
		BuyDate:      a.BuyDate.Format(time.RFC3339),
		LastUpdated:  a.LastUpdated.Format(time.RFC3339),
	}
}
