package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome         TransactionType = "income"
	TransactionTypeExpense        TransactionType = "expense"
	TransactionTypeTransferIn     TransactionType = "transfer_in"
	TransactionTypeTransferOut    TransactionType = "transfer_out"
	TransactionTypeInvestment     TransactionType = "investment"
	TransactionTypeInvestmentSale TransactionType = "investment_sale"
	TransactionTypeDividend       TransactionType = "dividend"
	TransactionTypeInterest       TransactionType = "interest"
)

// TransactionTypes lists every transaction type
var TransactionTypes = []TransactionType{
	TransactionTypeIncome,
	TransactionTypeExpense,
	TransactionTypeTransferIn,
	TransactionTypeTransferOut,
	TransactionTypeInvestment,
	TransactionTypeInvestmentSale,
	TransactionTypeDividend,
	TransactionTypeInterest,
}

// Sign returns +1 for types that increase the balance and -1 for types that
// decrease it. This is the only place a balance direction is decided.
func (t TransactionType) Sign() int {
	switch t {
	case TransactionTypeIncome, TransactionTypeTransferIn, TransactionTypeDividend,
		TransactionTypeInterest, TransactionTypeInvestmentSale:
		return 1
	case TransactionTypeExpense, TransactionTypeTransferOut, TransactionTypeInvestment:
		return -1
	}
	return 0
}

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t.Sign() != 0
}

// SignedAmount applies the type's sign to a non-negative magnitude
func (t TransactionType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	switch t.Sign() {
	case 1:
		return amount
	case -1:
		return amount.Neg()
	}
	return decimal.Zero
}

// IsInvestment reports whether t is either side of a trade
func (t TransactionType) IsInvestment() bool {
	switch t {
	case TransactionTypeInvestment, TransactionTypeInvestmentSale:
		return true
	}
	return false
}

// IsTransfer reports whether t is one leg of a transfer
func (t TransactionType) IsTransfer() bool {
	switch t {
	case TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	}
	return false
}

// Label returns the human readable name of the transaction type
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeIncome:
		return "Income"
	case TransactionTypeExpense:
		return "Expense"
	case TransactionTypeTransferIn:
		return "Transfer In"
	case TransactionTypeTransferOut:
		return "Transfer Out"
	case TransactionTypeInvestment:
		return "Investment"
	case TransactionTypeInvestmentSale:
		return "Investment Sale"
	case TransactionTypeDividend:
		return "Dividend"
	case TransactionTypeInterest:
		return "Interest"
	}
	return string(t)
}

// Transaction is an immutable journal entry. Amount is always a non-negative
// magnitude; the effect on the balance is derived from Type.
type Transaction struct {
	ID             int32           `json:"id"`
	AccountID      int32           `json:"accountId"`
	Amount         decimal.Decimal `json:"amount"`
	Type           TransactionType `json:"type"`
	CategoryID     *int32          `json:"categoryId,omitempty"`
	Description    string          `json:"description"`
	Date           time.Time       `json:"date"`
	IsRecurring    bool            `json:"isRecurring"`
	Tags           []string        `json:"tags"`
	TransferPairID *uuid.UUID      `json:"transferPairId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// SignedAmount returns the effect this entry had on its account balance
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Type.SignedAmount(t.Amount)
}

// TransferResult holds both legs of a transfer
type TransferResult struct {
	PairID          uuid.UUID    `json:"pairId"`
	FromTransaction *Transaction `json:"fromTransaction"`
	ToTransaction   *Transaction `json:"toTransaction"`
}

// TransactionFilter selects journal entries. Zero values mean "no constraint".
type TransactionFilter struct {
	UserID      uuid.UUID
	AccountIDs  []int32
	Types       []TransactionType
	CategoryID  *int32
	From        *time.Time // inclusive
	To          *time.Time // inclusive
	After       *time.Time // exclusive
	Tags        []string   // entry must carry every tag
	Description string     // case-insensitive substring
	Limit       int32
	Offset      int32
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// TypeTotal is the summed magnitude of one transaction type on one account
type TypeTotal struct {
	AccountID int32
	Type      TransactionType
	Total     decimal.Decimal
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
	// Sum totals the magnitudes of matching entries
	Sum(ctx context.Context, filter TransactionFilter) (decimal.Decimal, error)
	// TotalsByAccountAndType groups matching magnitudes by (account, type).
	// Signs are applied by the caller through TransactionType.SignedAmount.
	TotalsByAccountAndType(ctx context.Context, filter TransactionFilter) ([]TypeTotal, error)
}
