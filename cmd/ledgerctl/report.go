package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/dafibh/fortuna/wealth-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func netWorthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "net-worth",
		Short: "Print a user's net worth at the end of a day, grouped by account type",
		RunE:  runNetWorth,
	}
	cmd.Flags().String("user", "", "user ID (required)")
	cmd.Flags().String("date", "", "as-of day, YYYY-MM-DD (default now)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print one account's balance at the end of a day",
		RunE:  runBalance,
	}
	cmd.Flags().String("user", "", "user ID (required)")
	cmd.Flags().Int32("account", 0, "account ID (required)")
	cmd.Flags().String("date", "", "as-of day, YYYY-MM-DD (default now)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func runNetWorth(cmd *cobra.Command, _ []string) error {
	userID, asOf, err := reportArgs(cmd)
	if err != nil {
		return err
	}

	balances := service.NewBalanceService(state.store, domain.NewRateTable(domain.ReportingCurrency, state.cfg.FXRates))
	byType, err := balances.NetWorthByType(cmd.Context(), userID, asOf)
	if err != nil {
		return fmt.Errorf("failed to compute net worth: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	total := decimal.Zero
	for _, t := range byType {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", t.Type.Label(), t.AccountCount, domain.FormatMoney(t.Balance, domain.ReportingCurrency))
		total = total.Add(t.Balance)
	}
	fmt.Fprintf(w, "Net worth\t\t%s\t\n", domain.FormatMoney(total, domain.ReportingCurrency))
	fmt.Fprintf(w, "as of\t\t%s\t\n", asOf.Format(time.RFC3339))
	return w.Flush()
}

func runBalance(cmd *cobra.Command, _ []string) error {
	userID, asOf, err := reportArgs(cmd)
	if err != nil {
		return err
	}
	accountID, _ := cmd.Flags().GetInt32("account")

	ctx := cmd.Context()
	account, err := state.store.Repos().Accounts.GetByID(ctx, userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	balances := service.NewBalanceService(state.store, domain.NewRateTable(domain.ReportingCurrency, state.cfg.FXRates))
	balance, err := balances.BalanceAsOf(ctx, userID, accountID, asOf)
	if err != nil {
		return fmt.Errorf("failed to compute balance: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s as of %s\n",
		account.Name, account.Type.Label(), domain.FormatMoney(balance, account.Currency), asOf.Format(time.RFC3339))
	return nil
}

func reportArgs(cmd *cobra.Command) (uuid.UUID, time.Time, error) {
	rawUser, _ := cmd.Flags().GetString("user")
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid --user: %w", err)
	}

	loc, err := state.cfg.Location()
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	rawDate, _ := cmd.Flags().GetString("date")
	if rawDate == "" {
		return userID, time.Now(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", rawDate, loc)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", rawDate)
	}
	return userID, util.DayEnd(day, loc), nil
}
