package service

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceRefreshResult summarises one refresh pass
type PriceRefreshResult struct {
	Symbols   int      `json:"symbols"`
	Updated   int      `json:"updated"`
	Positions int      `json:"positions"`
	Missing   []string `json:"missing"`
	Errors    int      `json:"errors"`
}

// PriceService refreshes market prices of held positions. It only writes
// current prices and price history, never balances.
type PriceService struct {
	store          domain.Store
	prices         domain.BatchPriceLookup
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewPriceService creates a new PriceService
func NewPriceService(store domain.Store, prices domain.BatchPriceLookup, logger zerolog.Logger) *PriceService {
	return &PriceService{
		store:  store,
		prices: prices,
		logger: logger.With().Str("component", "price_service").Logger(),
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PriceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// RefreshPrices fetches every held symbol in one batch and stores the new
// prices. A symbol that fails is counted and skipped.
func (s *PriceService) RefreshPrices(ctx context.Context) (*PriceRefreshResult, error) {
	symbols, err := s.store.Repos().Assets.DistinctSymbols(ctx)
	if err != nil {
		return nil, err
	}
	result := &PriceRefreshResult{Symbols: len(symbols), Missing: []string{}}
	if len(symbols) == 0 {
		return result, nil
	}

	quotes, err := s.prices.CurrentPrices(ctx, symbols)
	if err != nil {
		return nil, err
	}

	at := s.now()
	for _, symbol := range symbols {
		price, ok := quotes[symbol]
		price = domain.RoundUnit(price)
		if !ok || !price.IsPositive() {
			result.Missing = append(result.Missing, symbol)
			continue
		}

		touched, err := s.storePrice(ctx, symbol, price, at)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to store price")
			result.Errors++
			continue
		}
		result.Updated++
		result.Positions += len(touched)
		s.notify(ctx, symbol, price, touched)
	}
	return result, nil
}

func (s *PriceService) storePrice(ctx context.Context, symbol string, price decimal.Decimal, at time.Time) ([]*domain.Asset, error) {
	var touched []*domain.Asset
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		touched, err = repos.Assets.UpdatePriceBySymbol(ctx, symbol, price, at)
		if err != nil {
			return err
		}
		for _, a := range touched {
			if err := repos.PriceHistory.Create(ctx, &domain.AssetPricePoint{AssetID: a.ID, Price: price, Date: at}); err != nil {
				return err
			}
		}
		return nil
	})
	return touched, err
}

// notify sends one price.refreshed event to each owner of a touched position
func (s *PriceService) notify(ctx context.Context, symbol string, price decimal.Decimal, touched []*domain.Asset) {
	if s.eventPublisher == nil {
		return
	}
	accounts := s.store.Repos().Accounts
	notified := make(map[uuid.UUID]bool)
	for _, a := range touched {
		owner, err := accounts.OwnerOf(ctx, a.AccountID)
		if err != nil || notified[owner] {
			continue
		}
		notified[owner] = true
		s.eventPublisher.Publish(owner, websocket.PriceRefreshed(map[string]any{
			"symbol": symbol,
			"price":  price,
		}))
	}
}
