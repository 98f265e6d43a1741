package main

import (
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/pricing"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func refreshPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-prices",
		Short: "Fetch current prices for every held symbol once",
		Long: `Runs a single pass of the background price refresh: every symbol with an
open position is priced through CoinGecko and the positions are updated.`,
		RunE: runRefreshPrices,
	}
}

func runRefreshPrices(cmd *cobra.Command, _ []string) error {
	client := pricing.NewClient(pricing.Config{
		BaseURL:           state.cfg.Pricing.BaseURL,
		APIKey:            state.cfg.Pricing.APIKey,
		RequestsPerMinute: state.cfg.Pricing.RequestsPerMinute,
	}, log.Logger)
	priceService := service.NewPriceService(state.store, client, log.Logger)

	result, err := priceService.RefreshPrices(cmd.Context())
	if err != nil {
		return fmt.Errorf("price refresh failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "symbols: %d  updated: %d  positions: %d  errors: %d\n",
		result.Symbols, result.Updated, result.Positions, result.Errors)
	for _, symbol := range result.Missing {
		fmt.Fprintf(cmd.OutOrStdout(), "  no price for %s\n", symbol)
	}
	return nil
}
