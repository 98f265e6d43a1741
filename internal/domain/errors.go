package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error taxonomy of the ledger core
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrAtomicityFailure     = errors.New("atomic unit could not commit")
)

// Entity-specific errors. Each wraps a taxonomy sentinel so callers can branch on either.
var (
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrPositionNotFound    = fmt.Errorf("position %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)
	ErrGoalNotFound        = fmt.Errorf("goal %w", ErrNotFound)

	ErrInvalidAmount          = fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	ErrAmountPrecision        = fmt.Errorf("%w: amount has more than 8 decimal places", ErrInvalidArgument)
	ErrQuantityPrecision      = fmt.Errorf("%w: quantity has more than 12 decimal places", ErrInvalidArgument)
	ErrPricePrecision         = fmt.Errorf("%w: price has more than 12 decimal places", ErrInvalidArgument)
	ErrTradeTooSmall          = fmt.Errorf("%w: trade value rounds to zero", ErrInvalidArgument)
	ErrInvalidQuantity        = fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	ErrInvalidPrice           = fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	ErrInvalidSymbol          = fmt.Errorf("%w: symbol is required", ErrInvalidArgument)
	ErrInvalidTransactionType = fmt.Errorf("%w: unknown transaction type", ErrInvalidArgument)
	ErrInvalidAccountType     = fmt.Errorf("%w: unknown account type", ErrInvalidArgument)
	ErrInvalidCurrency        = fmt.Errorf("%w: unknown currency code", ErrInvalidArgument)
	ErrInvalidDateRange       = fmt.Errorf("%w: end date before start date", ErrInvalidArgument)
	ErrInvalidMetric          = fmt.Errorf("%w: unknown series metric", ErrInvalidArgument)
	ErrAccountInactive        = fmt.Errorf("%w: account is inactive", ErrInvalidArgument)
	ErrSameAccountTransfer    = fmt.Errorf("%w: transfer source and destination are the same account", ErrInvalidArgument)
	ErrCategoryTooDeep        = fmt.Errorf("%w: categories nest at most one level", ErrInvalidArgument)
	ErrNameRequired           = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrNameTooLong            = fmt.Errorf("%w: name exceeds maximum length", ErrInvalidArgument)
	ErrDescriptionTooLong     = fmt.Errorf("%w: description exceeds maximum length", ErrInvalidArgument)
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	MaxTagLength         = 50
)

// InsufficientFundsError carries the shortfall of a rejected purchase
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s", e.Required.String(), e.Available.String())
}

func (e InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Shortfall returns how much is missing to cover the purchase
func (e InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// InsufficientPositionError carries the shortfall of a rejected sale
type InsufficientPositionError struct {
	Symbol    string
	Requested decimal.Decimal
	Held      decimal.Decimal
}

func (e InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient %s position: requested %s, held %s", e.Symbol, e.Requested.String(), e.Held.String())
}

func (e InsufficientPositionError) Unwrap() error { return ErrInsufficientPosition }

// IsBusinessError reports whether err is already classified by the taxonomy
// above. Raw store and driver errors are not.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientPosition) ||
		errors.Is(err, ErrPriceUnavailable) ||
		errors.Is(err, ErrAtomicityFailure)
}

// AtomicityFailure wraps a store failure from inside an atomic unit so it
// surfaces as ErrAtomicityFailure. Business errors pass through unchanged.
func AtomicityFailure(err error) error {
	if err == nil || IsBusinessError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrAtomicityFailure, err)
}
