package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// AssetRepository implements domain.AssetRepository using PostgreSQL
type AssetRepository struct {
	q querier
}

const assetColumns = `id, account_id, symbol, name, type, quantity, avg_buy_price, current_price,
	currency, buy_date, last_updated`

// Create opens a new position
func (r *AssetRepository) Create(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	quantity, avg, current, err := assetNumerics(asset)
	if err != nil {
		return nil, err
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO assets (account_id, symbol, name, type, quantity, avg_buy_price, current_price, currency, buy_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+assetColumns,
		asset.AccountID, asset.Symbol, asset.Name, string(asset.Type), quantity, avg, current,
		asset.Currency, asset.BuyDate, asset.LastUpdated)
	return scanAsset(row)
}

// Get retrieves the position of symbol in an account
func (r *AssetRepository) Get(ctx context.Context, accountID int32, symbol string) (*domain.Asset, error) {
	row := r.q.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE account_id = $1 AND symbol = $2`,
		accountID, symbol)
	return scanAsset(row)
}

// GetForUpdate retrieves a position and locks its row until the transaction ends
func (r *AssetRepository) GetForUpdate(ctx context.Context, accountID int32, symbol string) (*domain.Asset, error) {
	row := r.q.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE account_id = $1 AND symbol = $2 FOR UPDATE`,
		accountID, symbol)
	return scanAsset(row)
}

// Update overwrites quantity, prices and timestamps of a position
func (r *AssetRepository) Update(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	quantity, avg, current, err := assetNumerics(asset)
	if err != nil {
		return nil, err
	}

	row := r.q.QueryRow(ctx, `
		UPDATE assets
		SET quantity = $2, avg_buy_price = $3, current_price = $4, last_updated = $5
		WHERE id = $1
		RETURNING `+assetColumns,
		asset.ID, quantity, avg, current, asset.LastUpdated)
	return scanAsset(row)
}

// Delete removes a closed position
func (r *AssetRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

// ListByAccount returns the open positions of an account ordered by symbol
func (r *AssetRepository) ListByAccount(ctx context.Context, accountID int32) ([]*domain.Asset, error) {
	rows, err := r.q.Query(ctx, `SELECT `+assetColumns+` FROM assets WHERE account_id = $1 ORDER BY symbol`, accountID)
	if err != nil {
		return nil, err
	}
	return collectAssets(rows)
}

// DistinctSymbols returns every symbol that has an open position
func (r *AssetRepository) DistinctSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT symbol FROM assets WHERE quantity > 0 ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// UpdatePriceBySymbol sets the market price of every position in symbol
func (r *AssetRepository) UpdatePriceBySymbol(ctx context.Context, symbol string, price decimal.Decimal, at time.Time) ([]*domain.Asset, error) {
	p, err := decimalToPgNumeric(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		UPDATE assets SET current_price = $2, last_updated = $3
		WHERE symbol = $1
		RETURNING `+assetColumns, symbol, p, at)
	if err != nil {
		return nil, err
	}
	return collectAssets(rows)
}

func collectAssets(rows pgx.Rows) ([]*domain.Asset, error) {
	defer rows.Close()

	var result []*domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}

func assetNumerics(asset *domain.Asset) (quantity, avg, current pgtype.Numeric, err error) {
	if quantity, err = decimalToPgNumeric(asset.Quantity); err != nil {
		return quantity, avg, current, fmt.Errorf("invalid quantity: %w", err)
	}
	if avg, err = decimalToPgNumeric(asset.AvgBuyPrice); err != nil {
		return quantity, avg, current, fmt.Errorf("invalid average buy price: %w", err)
	}
	if current, err = decimalToPgNumeric(asset.CurrentPrice); err != nil {
		return quantity, avg, current, fmt.Errorf("invalid current price: %w", err)
	}
	return quantity, avg, current, nil
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var (
		a           domain.Asset
		assetType   string
		quantity    pgtype.Numeric
		avg         pgtype.Numeric
		current     pgtype.Numeric
		buyDate     pgtype.Timestamptz
		lastUpdated pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.AccountID, &a.Symbol, &a.Name, &assetType, &quantity, &avg, &current,
		&a.Currency, &buyDate, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, err
	}
	a.Type = domain.AssetType(assetType)
	a.Quantity = pgNumericToDecimal(quantity)
	a.AvgBuyPrice = pgNumericToDecimal(avg)
	a.CurrentPrice = pgNumericToDecimal(current)
	a.BuyDate = buyDate.Time
	a.LastUpdated = lastUpdated.Time
	return &a, nil
}
