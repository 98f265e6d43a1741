package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	q querier
}

const accountColumns = `id, user_id, name, type, currency, balance, is_active, created_at, updated_at`

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, type, currency, balance, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		uuidToPg(account.UserID), account.Name, string(account.Type), account.Currency, balance, account.IsActive)
	return scanAccount(row)
}

// GetByID retrieves an account owned by userID
func (r *AccountRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		id, uuidToPg(userID))
	return scanAccount(row)
}

// GetForUpdate retrieves an account and locks its row until the transaction ends
func (r *AccountRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, uuidToPg(userID))
	return scanAccount(row)
}

// GetAllByUser retrieves all accounts of a user ordered by creation
func (r *AccountRepository) GetAllByUser(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND ($2 OR is_active)
		ORDER BY created_at, id`,
		uuidToPg(userID), includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

// SetActive activates or deactivates an account
func (r *AccountRepository) SetActive(ctx context.Context, userID uuid.UUID, id int32, active bool) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE accounts SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountColumns,
		id, uuidToPg(userID), active)
	return scanAccount(row)
}

// OwnerOf returns the user an account belongs to
func (r *AccountRepository) OwnerOf(ctx context.Context, id int32) (uuid.UUID, error) {
	var userID pgtype.UUID
	if err := r.q.QueryRow(ctx, `SELECT user_id FROM accounts WHERE id = $1`, id).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrAccountNotFound
		}
		return uuid.Nil, err
	}
	return uuid.UUID(userID.Bytes), nil
}

// ApplyDelta adds delta to the cached balance
func (r *AccountRepository) ApplyDelta(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimalToPgNumeric(delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid delta: %w", err)
	}

	var balance pgtype.Numeric
	err = r.q.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance`, id, d).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return pgNumericToDecimal(balance), nil
}

// ApplyDeltaIfCovered adds delta only when the new balance is not negative.
// The check and the write are one statement, so two concurrent purchases can
// never both pass against the same funds.
func (r *AccountRepository) ApplyDeltaIfCovered(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimalToPgNumeric(delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid delta: %w", err)
	}

	var balance pgtype.Numeric
	err = r.q.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`, id, d).Scan(&balance)
	if err == nil {
		return pgNumericToDecimal(balance), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	// Nothing updated: either the account is gone or the funds do not cover delta
	var current pgtype.Numeric
	err = r.q.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return decimal.Zero, domain.InsufficientFundsError{
		Required:  delta.Neg(),
		Available: pgNumericToDecimal(current),
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a         domain.Account
		userID    pgtype.UUID
		accType   string
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &userID, &a.Name, &accType, &a.Currency, &balance, &a.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	a.UserID = uuid.UUID(userID.Bytes)
	a.Type = domain.AccountType(accType)
	a.Balance = pgNumericToDecimal(balance)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return &a, nil
}
