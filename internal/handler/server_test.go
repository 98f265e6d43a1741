package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/dafibh/fortuna/wealth-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testServer runs the real routes over an in-memory store
type testServer struct {
	e      *echo.Echo
	store  *testutil.MemoryStore
	prices *testutil.MockPriceLookup
	userID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithLimiter(t, nil)
}

func newTestServerWithLimiter(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()

	store := testutil.NewMemoryStore()
	prices := testutil.NewMockPriceLookup()
	rates := domain.DefaultRateTable()
	loc := time.UTC

	accounts := service.NewAccountService(store)
	transactions := service.NewTransactionService(store)
	assets := service.NewAssetService(store, prices)
	balances := service.NewBalanceService(store, rates)
	aggregation := service.NewAggregationService(store, balances, rates, loc)

	e := echo.New()
	RegisterRoutes(e, Handlers{
		Account:     NewAccountHandler(accounts, balances, loc),
		Transaction: NewTransactionHandler(transactions, loc),
		Category:    NewCategoryHandler(service.NewCategoryService(store)),
		Budget:      NewBudgetHandler(service.NewBudgetService(store, aggregation), loc),
		Goal:        NewGoalHandler(service.NewGoalService(store, aggregation), loc),
		Investment:  NewInvestmentHandler(assets, prices),
		Report:      NewReportHandler(balances, aggregation, loc),
	}, limiter)

	return &testServer{e: e, store: store, prices: prices, userID: uuid.New()}
}

// do sends a request as the server's user
func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	return s.doAs(s.userID, method, path, body)
}

func (s *testServer) doAs(userID uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, userID.String())
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// seedAccount inserts an active account owned by the server's user
func (s *testServer) seedAccount(accType domain.AccountType, currency, balance string, createdAt time.Time) *domain.Account {
	return s.store.AddAccount(domain.Account{
		UserID:    s.userID,
		Name:      string(accType),
		Type:      accType,
		Currency:  currency,
		Balance:   decimal.RequireFromString(balance),
		IsActive:  true,
		CreatedAt: createdAt,
	})
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
