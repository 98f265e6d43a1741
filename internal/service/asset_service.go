package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetService buys and sells positions against an account's cash balance
type AssetService struct {
	store          domain.Store
	prices         domain.PriceLookup
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewAssetService creates a new AssetService
func NewAssetService(store domain.Store, prices domain.PriceLookup) *AssetService {
	return &AssetService{
		store:  store,
		prices: prices,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AssetService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *AssetService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// TradeInput holds the input for a buy or a sell
type TradeInput struct {
	AccountID int32
	Symbol    string
	Name      string // display name for a new position, defaults to the symbol
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

func (in *TradeInput) validate() error {
	in.Symbol = domain.CanonicalSymbol(in.Symbol)
	if in.Symbol == "" {
		return domain.ErrInvalidSymbol
	}
	if !in.Quantity.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	if !domain.FitsScale(in.Quantity, domain.QuantityScale) {
		return domain.ErrQuantityPrecision
	}
	if !in.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	if !domain.FitsScale(in.Price, domain.QuantityScale) {
		return domain.ErrPricePrecision
	}
	if !domain.TradeValue(in.Quantity, in.Price).IsPositive() {
		return domain.ErrTradeTooSmall
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = in.Symbol
	}
	if len(in.Name) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	return nil
}

// Buy debits quantity × price, rounded to money scale, from the account and adds quantity to the
// position at a weighted-average cost
func (s *AssetService) Buy(ctx context.Context, userID uuid.UUID, input TradeInput) (*domain.TradeResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	account, err := s.store.Repos().Accounts.GetByID(ctx, userID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}

	cost := domain.TradeValue(input.Quantity, input.Price)
	if cost.GreaterThan(account.Balance) {
		return nil, domain.InsufficientFundsError{Required: cost, Available: account.Balance}
	}

	market, err := s.marketPrice(ctx, input.Symbol)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &domain.TradeResult{}
	err = s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		account, err := lockActiveAccount(ctx, repos, userID, input.AccountID)
		if err != nil {
			return err
		}

		// The guarded update re-checks funds atomically; the read above only
		// rejects early.
		result.Transaction, result.AccountBalance, err = postEntry(ctx, repos, account, &domain.Transaction{
			AccountID:   account.ID,
			Amount:      cost,
			Type:        domain.TransactionTypeInvestment,
			Description: fmt.Sprintf("Purchase of %s %s at $%s", input.Quantity, input.Symbol, input.Price),
			Date:        now,
			Tags:        []string{},
		}, true)
		if err != nil {
			return err
		}

		position, err := repos.Assets.GetForUpdate(ctx, account.ID, input.Symbol)
		switch {
		case errors.Is(err, domain.ErrPositionNotFound):
			result.Position, err = repos.Assets.Create(ctx, &domain.Asset{
				AccountID:    account.ID,
				Symbol:       input.Symbol,
				Name:         input.Name,
				Type:         domain.AssetTypeCrypto,
				Quantity:     input.Quantity,
				AvgBuyPrice:  input.Price,
				CurrentPrice: market,
				Currency:     domain.DefaultAssetCurrency,
				BuyDate:      now,
				LastUpdated:  now,
			})
			return err
		case err != nil:
			return err
		}

		position.AvgBuyPrice = domain.WeightedAverage(position.Quantity, position.AvgBuyPrice, input.Quantity, cost)
		position.Quantity = position.Quantity.Add(input.Quantity)
		position.CurrentPrice = market
		position.LastUpdated = now
		result.Position, err = repos.Assets.Update(ctx, position)
		return err
	})
	if err != nil {
		return nil, domain.AtomicityFailure(err)
	}

	s.publishEvent(userID, websocket.TransactionCreated(result.Transaction))
	s.publishEvent(userID, websocket.PositionUpdated(result.Position))
	return result, nil
}

// Sell credits quantity × price to the account and reduces the position.
// The average buy price is left untouched; a position sold down to exactly
// zero is removed.
func (s *AssetService) Sell(ctx context.Context, userID uuid.UUID, input TradeInput) (*domain.TradeResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	account, err := repos.Accounts.GetByID(ctx, userID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}
	held, err := repos.Assets.Get(ctx, account.ID, input.Symbol)
	if err != nil {
		return nil, err
	}
	if input.Quantity.GreaterThan(held.Quantity) {
		return nil, domain.InsufficientPositionError{Symbol: input.Symbol, Requested: input.Quantity, Held: held.Quantity}
	}

	market, err := s.marketPrice(ctx, input.Symbol)
	if err != nil {
		return nil, err
	}

	now := s.now()
	proceeds := domain.TradeValue(input.Quantity, input.Price)
	result := &domain.TradeResult{}
	err = s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		account, err := lockActiveAccount(ctx, repos, userID, input.AccountID)
		if err != nil {
			return err
		}
		position, err := repos.Assets.GetForUpdate(ctx, account.ID, input.Symbol)
		if err != nil {
			return err
		}
		if input.Quantity.GreaterThan(position.Quantity) {
			return domain.InsufficientPositionError{Symbol: input.Symbol, Requested: input.Quantity, Held: position.Quantity}
		}

		result.Transaction, result.AccountBalance, err = postEntry(ctx, repos, account, &domain.Transaction{
			AccountID:   account.ID,
			Amount:      proceeds,
			Type:        domain.TransactionTypeInvestmentSale,
			Description: fmt.Sprintf("Sale of %s %s at $%s", input.Quantity, input.Symbol, input.Price),
			Date:        now,
			Tags:        []string{},
		}, false)
		if err != nil {
			return err
		}

		remaining := position.Quantity.Sub(input.Quantity)
		if remaining.IsZero() {
			result.Closed = true
			return repos.Assets.Delete(ctx, position.ID)
		}

		position.Quantity = remaining
		position.CurrentPrice = market
		position.LastUpdated = now
		result.Position, err = repos.Assets.Update(ctx, position)
		return err
	})
	if err != nil {
		return nil, domain.AtomicityFailure(err)
	}

	s.publishEvent(userID, websocket.TransactionCreated(result.Transaction))
	if result.Closed {
		s.publishEvent(userID, websocket.PositionClosed(map[string]any{
			"accountId": input.AccountID,
			"symbol":    input.Symbol,
		}))
	} else {
		s.publishEvent(userID, websocket.PositionUpdated(result.Position))
	}
	return result, nil
}

// Portfolio values every open position of an account at its last known price
func (s *AssetService) Portfolio(ctx context.Context, userID uuid.UUID, accountID int32) (*domain.Portfolio, error) {
	repos := s.store.Repos()
	account, err := repos.Accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	assets, err := repos.Assets.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	portfolio := &domain.Portfolio{
		AccountID:      account.ID,
		AccountBalance: account.Balance,
		TotalValue:     decimal.Zero,
		TotalPnL:       decimal.Zero,
		Assets:         make([]*domain.PortfolioAsset, 0, len(assets)),
	}
	for _, a := range assets {
		entry := &domain.PortfolioAsset{Asset: a, Value: a.Value(), PnL: a.UnrealizedPnL()}
		portfolio.TotalValue = portfolio.TotalValue.Add(entry.Value)
		portfolio.TotalPnL = portfolio.TotalPnL.Add(entry.PnL)
		portfolio.Assets = append(portfolio.Assets, entry)
	}
	return portfolio, nil
}

// PriceHistory returns the recorded market prices of one position, newest
// first. limit falls back to the default page size and is capped at the
// maximum.
func (s *AssetService) PriceHistory(ctx context.Context, userID uuid.UUID, accountID int32, symbol string, limit int32) ([]*domain.AssetPricePoint, error) {
	symbol = domain.CanonicalSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	limit = min(limit, domain.MaxPageSize)

	repos := s.store.Repos()
	account, err := repos.Accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	position, err := repos.Assets.Get(ctx, account.ID, symbol)
	if err != nil {
		return nil, err
	}
	points, err := repos.PriceHistory.ListByAsset(ctx, position.ID, limit)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []*domain.AssetPricePoint{}
	}
	return points, nil
}

// marketPrice looks up the current price. Every failure, including a
// non-positive quote, is reported as ErrPriceUnavailable.
func (s *AssetService) marketPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.prices == nil {
		return decimal.Zero, fmt.Errorf("%w: no price source configured", domain.ErrPriceUnavailable)
	}
	price, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrPriceUnavailable, symbol, err)
	}
	price = domain.RoundUnit(price)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, symbol)
	}
	return price, nil
}
