package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GoalRepository implements domain.GoalRepository using PostgreSQL
type GoalRepository struct {
	q querier
}

const goalColumns = `id, user_id, name, description, target_amount, target_date, category, account_id,
	is_active, created_at, updated_at`

// Create creates a new goal
func (r *GoalRepository) Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	target, err := decimalToPgNumeric(goal.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid target amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO goals (user_id, name, description, target_amount, target_date, category, account_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+goalColumns,
		uuidToPg(goal.UserID), goal.Name, optionalTextToPg(goal.Description), target,
		optionalTimeToPg(goal.TargetDate), string(goal.Category), optionalInt4ToPg(goal.AccountID), goal.IsActive)
	return scanGoal(row)
}

// GetAllByUser retrieves the user's active goals, nearest deadline first
func (r *GoalRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Goal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+goalColumns+` FROM goals
		WHERE user_id = $1 AND is_active
		ORDER BY target_date ASC NULLS LAST, id`,
		uuidToPg(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// Delete removes one of the user's goals
func (r *GoalRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, uuidToPg(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var (
		g           domain.Goal
		userID      pgtype.UUID
		description pgtype.Text
		target      pgtype.Numeric
		targetDate  pgtype.Timestamptz
		category    string
		accountID   pgtype.Int4
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(&g.ID, &userID, &g.Name, &description, &target, &targetDate, &category, &accountID,
		&g.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	g.UserID = uuid.UUID(userID.Bytes)
	g.Description = pgTextToOptional(description)
	g.TargetAmount = pgNumericToDecimal(target)
	g.TargetDate = pgTimestamptzToOptional(targetDate)
	g.Category = domain.GoalCategory(category)
	g.AccountID = pgInt4ToOptional(accountID)
	g.CreatedAt = createdAt.Time
	g.UpdatedAt = updatedAt.Time
	return &g, nil
}
