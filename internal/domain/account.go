package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCrypto     AccountType = "crypto"
	AccountTypeRetirement AccountType = "retirement"
	AccountTypeWallet     AccountType = "wallet"
)

// AccountTypes lists every account type in display order
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeCreditCard,
	AccountTypeInvestment,
	AccountTypeCrypto,
	AccountTypeRetirement,
	AccountTypeWallet,
}

// Valid reports whether t is a known account type
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard,
		AccountTypeInvestment, AccountTypeCrypto, AccountTypeRetirement, AccountTypeWallet:
		return true
	}
	return false
}

// Label returns the human readable name of the account type
func (t AccountType) Label() string {
	switch t {
	case AccountTypeChecking:
		return "Checking"
	case AccountTypeSavings:
		return "Savings"
	case AccountTypeCreditCard:
		return "Credit Card"
	case AccountTypeInvestment:
		return "Investment"
	case AccountTypeCrypto:
		return "Crypto"
	case AccountTypeRetirement:
		return "Retirement"
	case AccountTypeWallet:
		return "Wallet"
	}
	return string(t)
}

// Account is a user-owned money container. Balance is only ever changed by the
// transaction engine and always equals the sum of its journal's signed amounts.
type Account struct {
	ID        int32           `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Account, error)
	// GetForUpdate reads the account and locks its row for the rest of the atomic unit
	GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*Account, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]*Account, error)
	SetActive(ctx context.Context, userID uuid.UUID, id int32, active bool) (*Account, error)
	// OwnerOf returns the user an account belongs to
	OwnerOf(ctx context.Context, id int32) (uuid.UUID, error)
	// ApplyDelta adds delta to the balance and returns the new balance
	ApplyDelta(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error)
	// ApplyDeltaIfCovered adds delta only if the resulting balance stays >= 0,
	// otherwise returns ErrInsufficientFunds without touching the row
	ApplyDeltaIfCovered(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error)
}
