package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

// PriceHistoryRepository implements domain.PriceHistoryRepository using PostgreSQL
type PriceHistoryRepository struct {
	q querier
}

// Create records an observed price
func (r *PriceHistoryRepository) Create(ctx context.Context, point *domain.AssetPricePoint) error {
	price, err := decimalToPgNumeric(point.Price)
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	_, err = r.q.Exec(ctx, `INSERT INTO asset_price_history (asset_id, price, date) VALUES ($1, $2, $3)`,
		point.AssetID, price, point.Date)
	return err
}

// ListByAsset returns the most recent prices of an asset, newest first
func (r *PriceHistoryRepository) ListByAsset(ctx context.Context, assetID int32, limit int32) ([]*domain.AssetPricePoint, error) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, asset_id, price, date FROM asset_price_history
		WHERE asset_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2`, assetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.AssetPricePoint
	for rows.Next() {
		var (
			p     domain.AssetPricePoint
			price pgtype.Numeric
			date  pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.AssetID, &price, &date); err != nil {
			return nil, err
		}
		p.Price = pgNumericToDecimal(price)
		p.Date = date.Time
		result = append(result, &p)
	}
	return result, rows.Err()
}
