package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsWrapTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrAccountNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrPositionNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrInvalidAmount, ErrInvalidArgument)
	assert.ErrorIs(t, ErrSameAccountTransfer, ErrInvalidArgument)
}

func TestInsufficientFundsError(t *testing.T) {
	err := error(InsufficientFundsError{
		Required:  decimal.NewFromInt(2000),
		Available: decimal.NewFromInt(100),
	})

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var shortfall InsufficientFundsError
	assert.True(t, errors.As(err, &shortfall))
	assert.Equal(t, "1900", shortfall.Shortfall().String())
	assert.Contains(t, err.Error(), "required 2000")
}

func TestInsufficientPositionError(t *testing.T) {
	err := error(InsufficientPositionError{
		Symbol:    "BTC",
		Requested: decimal.NewFromInt(2),
		Held:      decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrInsufficientPosition)
	assert.Contains(t, err.Error(), "BTC")
}

func TestAtomicityFailure(t *testing.T) {
	assert.NoError(t, AtomicityFailure(nil))

	// Business errors pass through untouched
	assert.Equal(t, ErrAccountNotFound, AtomicityFailure(ErrAccountNotFound))

	wrapped := AtomicityFailure(fmt.Errorf("connection reset"))
	assert.ErrorIs(t, wrapped, ErrAtomicityFailure)
	assert.Contains(t, wrapped.Error(), "connection reset")
}
