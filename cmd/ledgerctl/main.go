package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dafibh/fortuna/wealth-backend/internal/config"
	"github.com/dafibh/fortuna/wealth-backend/internal/repository/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root pre-run has connected
type app struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	store *postgres.Store
}

var (
	state   app
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the wealth ledger from the command line",
		Long: `ledgerctl runs maintenance tasks against the wealth ledger database:
schema migrations, on-demand price refreshes and point-in-time reports.

Configuration is read from the same environment variables (and .env file)
as the API server.`,
		SilenceUsage:       true,
		PersistentPreRunE:  connect,
		PersistentPostRunE: disconnect,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(refreshPricesCmd())
	rootCmd.AddCommand(netWorthCmd())
	rootCmd.AddCommand(balanceCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pool, err := pgxpool.New(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(cmd.Context()); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Debug().Msg("Connected to database")

	state = app{cfg: cfg, pool: pool, store: postgres.NewStore(pool)}
	return nil
}

func disconnect(_ *cobra.Command, _ []string) error {
	if state.pool != nil {
		state.pool.Close()
	}
	return nil
}
