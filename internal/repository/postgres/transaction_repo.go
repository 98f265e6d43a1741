package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	q querier
}

const transactionColumns = `t.id, t.account_id, t.amount, t.type, t.category_id, t.description, t.date,
	t.is_recurring, t.tags, t.transfer_pair_id, t.created_at`

// Create appends an entry to the journal
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	tags := transaction.Tags
	if tags == nil {
		tags = []string{}
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO transactions AS t (account_id, amount, type, category_id, description, date, is_recurring, tags, transfer_pair_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		transaction.AccountID, amount, string(transaction.Type), optionalInt4ToPg(transaction.CategoryID),
		transaction.Description, transaction.Date, transaction.IsRecurring, tags,
		optionalUUIDToPg(transaction.TransferPairID))
	created, err := scanTransaction(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: account or category does not exist", domain.ErrInvalidArgument)
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an entry on one of the user's accounts
func (r *TransactionRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = $1 AND a.user_id = $2`,
		id, uuidToPg(userID))
	return scanTransaction(row)
}

// List returns matching entries, newest first
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	where, args := buildTransactionWhere(filter)

	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE ` + where + `
		ORDER BY t.date DESC, t.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Sum totals the magnitudes of matching entries
func (r *TransactionRepository) Sum(ctx context.Context, filter domain.TransactionFilter) (decimal.Decimal, error) {
	where, args := buildTransactionWhere(filter)

	var total pgtype.Numeric
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE `+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// TotalsByAccountAndType groups matching magnitudes by account and type
func (r *TransactionRepository) TotalsByAccountAndType(ctx context.Context, filter domain.TransactionFilter) ([]domain.TypeTotal, error) {
	where, args := buildTransactionWhere(filter)

	rows, err := r.q.Query(ctx, `
		SELECT t.account_id, t.type, SUM(t.amount)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE `+where+`
		GROUP BY t.account_id, t.type
		ORDER BY t.account_id, t.type`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TypeTotal
	for rows.Next() {
		var (
			total   domain.TypeTotal
			txnType string
			sum     pgtype.Numeric
		)
		if err := rows.Scan(&total.AccountID, &txnType, &sum); err != nil {
			return nil, err
		}
		total.Type = domain.TransactionType(txnType)
		total.Total = pgNumericToDecimal(sum)
		result = append(result, total)
	}
	return result, rows.Err()
}

// buildTransactionWhere renders a filter as a WHERE clause over
// transactions t joined with accounts a
func buildTransactionWhere(filter domain.TransactionFilter) (string, []any) {
	args := []any{uuidToPg(filter.UserID)}
	conds := []string{"a.user_id = $1"}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.AccountIDs) > 0 {
		add("t.account_id = ANY($%d)", filter.AccountIDs)
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		add("t.type = ANY($%d)", types)
	}
	if filter.CategoryID != nil {
		add("t.category_id = $%d", *filter.CategoryID)
	}
	if filter.From != nil {
		add("t.date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("t.date <= $%d", *filter.To)
	}
	if filter.After != nil {
		add("t.date > $%d", *filter.After)
	}
	if len(filter.Tags) > 0 {
		add("t.tags @> $%d", filter.Tags)
	}
	if filter.Description != "" {
		add("t.description ILIKE $%d", "%"+escapeLike(filter.Description)+"%")
	}

	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t          domain.Transaction
		amount     pgtype.Numeric
		txnType    string
		categoryID pgtype.Int4
		date       pgtype.Timestamptz
		pairID     pgtype.UUID
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &t.AccountID, &amount, &txnType, &categoryID, &t.Description, &date,
		&t.IsRecurring, &t.Tags, &pairID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Type = domain.TransactionType(txnType)
	t.CategoryID = pgInt4ToOptional(categoryID)
	t.Date = date.Time
	t.TransferPairID = pgUUIDToOptional(pairID)
	t.CreatedAt = createdAt.Time
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}
