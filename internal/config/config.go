package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Pricing
	Pricing PricingConfig

	// Reporting
	ReportingTimezone string
	FXRates           map[string]decimal.Decimal

	// TradeRateLimit is the number of buy/sell requests a user may make per minute
	TradeRateLimit int
}

// PricingConfig holds CoinGecko configuration
type PricingConfig struct {
	APIKey            string
	BaseURL           string
	RefreshInterval   time.Duration
	RequestsPerMinute int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	refresh, err := time.ParseDuration(getEnv("PRICE_REFRESH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_REFRESH_INTERVAL: %w", err)
	}
	requestsPerMinute, err := strconv.Atoi(getEnv("PRICE_REQUESTS_PER_MINUTE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_REQUESTS_PER_MINUTE: %w", err)
	}
	tradeRateLimit, err := strconv.Atoi(getEnv("TRADE_RATE_LIMIT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRADE_RATE_LIMIT: %w", err)
	}
	fxRates, err := ParseFXRates(getEnv("FX_RATES", "EUR=4.35,USD=4.10,GBP=5.20"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:         getEnv("ENV", "development"),
		Pricing: PricingConfig{
			APIKey:            getEnv("COINGECKO_API_KEY", ""),
			BaseURL:           getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			RefreshInterval:   refresh,
			RequestsPerMinute: requestsPerMinute,
		},
		ReportingTimezone: getEnv("REPORTING_TIMEZONE", "Europe/Warsaw"),
		FXRates:           fxRates,
		TradeRateLimit:    tradeRateLimit,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the reporting timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReportingTimezone)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Pricing.RefreshInterval <= 0 {
		return fmt.Errorf("PRICE_REFRESH_INTERVAL must be positive")
	}
	if c.Pricing.RequestsPerMinute <= 0 {
		return fmt.Errorf("PRICE_REQUESTS_PER_MINUTE must be positive")
	}
	if c.TradeRateLimit <= 0 {
		return fmt.Errorf("TRADE_RATE_LIMIT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid REPORTING_TIMEZONE: %w", err)
	}
	return nil
}

// ParseFXRates parses "EUR=4.35,USD=4.10" into a rate map
func ParseFXRates(raw string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid FX_RATES entry %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid FX_RATES rate for %s", code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
