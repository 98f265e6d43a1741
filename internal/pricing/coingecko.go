package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public CoinGecko API
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// DefaultCacheTTL is how long a fetched price is served without asking again
const DefaultCacheTTL = 60 * time.Second

// ErrUnknownSymbol is returned when CoinGecko has no market for a symbol
var ErrUnknownSymbol = errors.New("symbol not listed")

// symbolToCoinGeckoID maps tickers to CoinGecko coin ids. Anything else is
// looked up by its lower-cased ticker.
var symbolToCoinGeckoID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "polygon-ecosystem-token",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"BUSD":  "binance-usd",
	"DAI":   "dai",
	"WBTC":  "wrapped-bitcoin",
	"WETH":  "weth",
	"SHIB":  "shiba-inu",
	"TRX":   "tron",
	"FTM":   "fantom",
	"NEAR":  "near",
	"ALGO":  "algorand",
	"VET":   "vechain",
	"THETA": "theta-token",
	"FIL":   "filecoin",
	"AAVE":  "aave",
	"MKR":   "maker",
	"COMP":  "compound-governance-token",
	"SUSHI": "sushi",
	"CRV":   "curve-dao-token",
	"YFI":   "yearn-finance",
	"1INCH": "1inch",
	"ENJ":   "enjincoin",
	"MANA":  "decentraland",
	"SAND":  "the-sandbox",
	"AXS":   "axie-infinity",
	"GALA":  "gala",
}

// CoinGeckoID returns the CoinGecko id used for symbol
func CoinGeckoID(symbol string) string {
	symbol = domain.CanonicalSymbol(symbol)
	if id, ok := symbolToCoinGeckoID[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// Config holds CoinGecko client settings
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	CacheTTL          time.Duration
	HTTPClient        *http.Client
}

type cachedPrice struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// Client fetches USD market prices from CoinGecko. Requests are throttled to
// the configured rate and recent prices are served from memory.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPrice
}

var (
	_ domain.BatchPriceLookup = (*Client)(nil)
	_ domain.MarketLister     = (*Client)(nil)
)

// NewClient creates a CoinGecko client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	perRequest := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Every(perRequest), 1),
		ttl:     cfg.CacheTTL,
		logger:  logger.With().Str("component", "coingecko").Logger(),
		now:     time.Now,
		cache:   make(map[string]cachedPrice),
	}
}

// CurrentPrice returns the USD price of symbol
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = domain.CanonicalSymbol(symbol)
	prices, err := c.CurrentPrices(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return price, nil
}

// CurrentPrices returns USD prices for every symbol CoinGecko knows, in one
// request for the symbols not already cached
func (c *Client) CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(symbols))
	// Several tickers can resolve to one coin id, e.g. "BTC" and "BITCOIN"
	byID := make(map[string][]string)

	c.mu.Lock()
	now := c.now()
	for _, s := range symbols {
		s = domain.CanonicalSymbol(s)
		if s == "" {
			continue
		}
		if hit, ok := c.cache[s]; ok && now.Sub(hit.fetchedAt) < c.ttl {
			result[s] = hit.price
			continue
		}
		id := CoinGeckoID(s)
		if !slices.Contains(byID[id], s) {
			byID[id] = append(byID[id], s)
		}
	}
	c.mu.Unlock()

	if len(byID) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	q := marketsQuery()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("per_page", "250")
	markets, err := c.fetchMarkets(ctx, q)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range markets {
		if !m.CurrentPrice.IsPositive() {
			continue
		}
		for _, symbol := range byID[m.ID] {
			result[symbol] = m.CurrentPrice
			c.cache[symbol] = cachedPrice{price: m.CurrentPrice, fetchedAt: now}
		}
	}
	return result, nil
}

// MaxMarketListing is the largest page CoinGecko serves
const MaxMarketListing = 250

// TopMarkets lists the largest coins by market cap. limit is clamped to
// 1..MaxMarketListing. Listed prices also warm the price cache.
func (c *Client) TopMarkets(ctx context.Context, limit int) ([]domain.MarketListing, error) {
	limit = min(max(limit, 1), MaxMarketListing)

	q := marketsQuery()
	q.Set("per_page", strconv.Itoa(limit))
	markets, err := c.fetchMarkets(ctx, q)
	if err != nil {
		return nil, err
	}

	listing := make([]domain.MarketListing, 0, len(markets))
	c.mu.Lock()
	now := c.now()
	for _, m := range markets {
		symbol := domain.CanonicalSymbol(m.Symbol)
		// Only cache tickers that resolve back to this coin, so a lookalike
		// token sharing a ticker cannot overwrite the mapped coin's price
		if m.CurrentPrice.IsPositive() && CoinGeckoID(symbol) == m.ID {
			c.cache[symbol] = cachedPrice{price: m.CurrentPrice, fetchedAt: now}
		}
		listing = append(listing, domain.MarketListing{
			ID:             m.ID,
			Symbol:         symbol,
			Name:           m.Name,
			Image:          m.Image,
			CurrentPrice:   m.CurrentPrice,
			MarketCap:      m.MarketCap,
			MarketCapRank:  m.MarketCapRank,
			PriceChange24h: m.PriceChange24h,
		})
	}
	c.mu.Unlock()
	return listing, nil
}

type market struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Image          string          `json:"image"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	MarketCap      decimal.Decimal `json:"market_cap"`
	MarketCapRank  int             `json:"market_cap_rank"`
	PriceChange24h decimal.Decimal `json:"price_change_percentage_24h"`
}

func marketsQuery() url.Values {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("page", "1")
	q.Set("sparkline", "false")
	return q
}

func (c *Client) fetchMarkets(ctx context.Context, q url.Values) ([]market, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("ids", q.Get("ids")).
		Str("per_page", q.Get("per_page")).
		Dur("latency", c.now().Sub(start)).
		Msg("Fetched markets")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: unexpected status %s", resp.Status)
	}

	var markets []market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("coingecko: decode markets: %w", err)
	}
	return markets, nil
}
