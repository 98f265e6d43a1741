package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	q querier
}

const categoryColumns = `id, user_id, name, parent_id, color, icon, created_at`

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, parent_id, color, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		uuidToPg(category.UserID), category.Name, optionalInt4ToPg(category.ParentID),
		optionalTextToPg(category.Color), optionalTextToPg(category.Icon))
	return scanCategory(row)
}

// GetByID retrieves a category owned by userID
func (r *CategoryRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Category, error) {
	row := r.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`,
		id, uuidToPg(userID))
	return scanCategory(row)
}

// GetAllByUser retrieves the user's categories ordered by name
func (r *CategoryRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name, id`,
		uuidToPg(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c         domain.Category
		userID    pgtype.UUID
		parentID  pgtype.Int4
		color     pgtype.Text
		icon      pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &userID, &c.Name, &parentID, &color, &icon, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	c.UserID = uuid.UUID(userID.Bytes)
	c.ParentID = pgInt4ToOptional(parentID)
	c.Color = pgTextToOptional(color)
	c.Icon = pgTextToOptional(icon)
	c.CreatedAt = createdAt.Time
	return &c, nil
}
