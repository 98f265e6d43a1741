package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ExpectedSchemaVersion is the latest schema version the application expects
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Ledger tables: accounts, categories, transactions",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id          SERIAL PRIMARY KEY,
				user_id     UUID NOT NULL,
				name        VARCHAR(255) NOT NULL,
				type        VARCHAR(20) NOT NULL CHECK (type IN ('checking', 'savings', 'credit_card', 'investment', 'crypto', 'retirement', 'wallet')),
				currency    CHAR(3) NOT NULL,
				balance     NUMERIC(20, 8) NOT NULL DEFAULT 0,
				is_active   BOOLEAN NOT NULL DEFAULT TRUE,
				created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,
			`CREATE TABLE IF NOT EXISTS categories (
				id          SERIAL PRIMARY KEY,
				user_id     UUID NOT NULL,
				name        VARCHAR(255) NOT NULL,
				parent_id   INTEGER REFERENCES categories(id),
				color       VARCHAR(20),
				icon        VARCHAR(50),
				created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id                SERIAL PRIMARY KEY,
				account_id        INTEGER NOT NULL REFERENCES accounts(id),
				amount            NUMERIC(20, 8) NOT NULL CHECK (amount >= 0),
				type              VARCHAR(20) NOT NULL CHECK (type IN ('income', 'expense', 'transfer_in', 'transfer_out', 'investment', 'investment_sale', 'dividend', 'interest')),
				category_id       INTEGER REFERENCES categories(id),
				description       TEXT NOT NULL DEFAULT '',
				date              TIMESTAMPTZ NOT NULL,
				is_recurring      BOOLEAN NOT NULL DEFAULT FALSE,
				tags              TEXT[] NOT NULL DEFAULT '{}',
				transfer_pair_id  UUID,
				created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_type_date ON transactions(type, date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_transfer_pair ON transactions(transfer_pair_id) WHERE transfer_pair_id IS NOT NULL`,
		},
	},
	{
		Version:     2,
		Description: "Investment positions and price history",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS assets (
				id             SERIAL PRIMARY KEY,
				account_id     INTEGER NOT NULL REFERENCES accounts(id),
				symbol         VARCHAR(20) NOT NULL,
				name           VARCHAR(255) NOT NULL,
				type           VARCHAR(20) NOT NULL DEFAULT 'crypto',
				quantity       NUMERIC(28, 12) NOT NULL CHECK (quantity >= 0),
				avg_buy_price  NUMERIC(28, 12) NOT NULL,
				current_price  NUMERIC(28, 12) NOT NULL,
				currency       CHAR(3) NOT NULL DEFAULT 'USD',
				buy_date       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				last_updated   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (account_id, symbol)
			)`,
			`CREATE TABLE IF NOT EXISTS asset_price_history (
				id        SERIAL PRIMARY KEY,
				asset_id  INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
				price     NUMERIC(28, 12) NOT NULL,
				date      TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_asset_price_history_asset_date ON asset_price_history(asset_id, date DESC)`,
		},
	},
	{
		Version:     3,
		Description: "Budgets and goals",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS budgets (
				id           SERIAL PRIMARY KEY,
				user_id      UUID NOT NULL,
				name         VARCHAR(255) NOT NULL,
				amount       NUMERIC(20, 8) NOT NULL CHECK (amount >= 0),
				period       VARCHAR(20) NOT NULL CHECK (period IN ('weekly', 'monthly', 'quarterly', 'yearly')),
				start_date   TIMESTAMPTZ NOT NULL,
				end_date     TIMESTAMPTZ NOT NULL,
				category_id  INTEGER REFERENCES categories(id),
				account_id   INTEGER REFERENCES accounts(id),
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id)`,
			`CREATE TABLE IF NOT EXISTS goals (
				id             SERIAL PRIMARY KEY,
				user_id        UUID NOT NULL,
				name           VARCHAR(255) NOT NULL,
				description    TEXT,
				target_amount  NUMERIC(20, 8) NOT NULL CHECK (target_amount >= 0),
				target_date    TIMESTAMPTZ,
				category       VARCHAR(20) NOT NULL,
				account_id     INTEGER REFERENCES accounts(id),
				is_active      BOOLEAN NOT NULL DEFAULT TRUE,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id)`,
		},
	},
}

// Migrate applies every pending migration, each in its own transaction
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		if err := s.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		log.Info().
			Int("version", migration.Version).
			Str("description", migration.Description).
			Msg("Applied migration")
	}

	final, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func (s *Store) applyMigration(ctx context.Context, migration Migration) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range migration.Statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			migration.Version, migration.Description)
		return err
	})
}
