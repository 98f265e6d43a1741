package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	q querier
}

const budgetColumns = `id, user_id, name, amount, period, start_date, end_date, category_id, account_id, created_at`

// Create creates a new budget
func (r *BudgetRepository) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO budgets (user_id, name, amount, period, start_date, end_date, category_id, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+budgetColumns,
		uuidToPg(budget.UserID), budget.Name, amount, string(budget.Period), budget.StartDate, budget.EndDate,
		optionalInt4ToPg(budget.CategoryID), optionalInt4ToPg(budget.AccountID))
	return scanBudget(row)
}

// GetByID retrieves a budget owned by userID
func (r *BudgetRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	row := r.q.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`,
		id, uuidToPg(userID))
	return scanBudget(row)
}

// GetAllByUser retrieves the user's budgets, latest period first
func (r *BudgetRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	rows, err := r.q.Query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY start_date DESC, id`,
		uuidToPg(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		b          domain.Budget
		userID     pgtype.UUID
		amount     pgtype.Numeric
		period     string
		startDate  pgtype.Timestamptz
		endDate    pgtype.Timestamptz
		categoryID pgtype.Int4
		accountID  pgtype.Int4
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&b.ID, &userID, &b.Name, &amount, &period, &startDate, &endDate, &categoryID, &accountID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	b.UserID = uuid.UUID(userID.Bytes)
	b.Amount = pgNumericToDecimal(amount)
	b.Period = domain.BudgetPeriod(period)
	b.StartDate = startDate.Time
	b.EndDate = endDate.Time
	b.CategoryID = pgInt4ToOptional(categoryID)
	b.AccountID = pgInt4ToOptional(accountID)
	b.CreatedAt = createdAt.Time
	return &b, nil
}
