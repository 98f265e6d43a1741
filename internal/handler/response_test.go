package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"not found", domain.ErrAccountNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrPositionNotFound), http.StatusNotFound, ErrorTypeNotFound},
		{"invalid argument", domain.ErrInvalidQuantity, http.StatusBadRequest, ErrorTypeValidation},
		{"inactive account", domain.ErrAccountInactive, http.StatusBadRequest, ErrorTypeValidation},
		{"insufficient funds", domain.InsufficientFundsError{Required: decimal.NewFromInt(10), Available: decimal.NewFromInt(4)}, http.StatusUnprocessableEntity, ErrorTypeInsufficientFunds},
		{"insufficient position", domain.InsufficientPositionError{Symbol: "BTC", Requested: decimal.NewFromInt(2), Held: decimal.NewFromInt(1)}, http.StatusUnprocessableEntity, ErrorTypeInsufficientAssets},
		{"price unavailable", fmt.Errorf("%w: BTC", domain.ErrPriceUnavailable), http.StatusServiceUnavailable, ErrorTypePriceUnavailable},
		{"atomicity failure", domain.AtomicityFailure(errors.New("connection reset")), http.StatusInternalServerError, ErrorTypeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/things", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, respondError(c, tt.err, "Failed to do thing"))
			assert.Equal(t, tt.status, rec.Code)

			problem := decodeJSON[ProblemDetails](t, rec)
			assert.Equal(t, tt.typ, problem.Type)
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, "/api/v1/things", problem.Instance)
		})
	}
}

func TestRespondError_ShortfallDetail(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	err := fmt.Errorf("buy: %w", domain.InsufficientFundsError{
		Required:  decimal.RequireFromString("500.25"),
		Available: decimal.RequireFromString("100"),
	})
	require.NoError(t, respondError(c, err, "Failed to buy"))

	problem := decodeJSON[ProblemDetails](t, rec)
	assert.Equal(t, "500.25", problem.Required)
	assert.Equal(t, "100", problem.Available)
	assert.Equal(t, "400.25", problem.Shortfall)
}

func TestRespondError_InternalHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, respondError(c, errors.New("pq: password authentication failed"), "Failed to load"))

	problem := decodeJSON[ProblemDetails](t, rec)
	assert.Equal(t, "Failed to load", problem.Detail)
	assert.NotContains(t, rec.Body.String(), "password")
}
