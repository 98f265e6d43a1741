package main

import (
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/repository/postgres"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE:  runMigrate,
	}
	cmd.Flags().Bool("status", false, "print the current schema version without applying anything")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	if status {
		version, err := state.store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (latest %d)\n", version, postgres.ExpectedSchemaVersion)
		return nil
	}

	if err := state.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Int("version", postgres.ExpectedSchemaVersion).Msg("Database schema is up to date")
	return nil
}
