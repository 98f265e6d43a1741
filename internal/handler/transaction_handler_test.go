package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction_Success(t *testing.T) {
	s := newTestServer(t)
	account := s.seedAccount(domain.AccountTypeChecking, "PLN", "100", time.Now())

	body := fmt.Sprintf(`{"accountId": %d, "amount": "250.5", "type": "expense", "description": " Groceries ", "tags": ["food", "food", " weekly "]}`, account.ID)
	rec := s.do(http.MethodPost, "/api/v1/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[TransactionResponse](t, rec)
	assert.Equal(t, "250.50", resp.Amount)
	assert.Equal(t, "-250.50", resp.SignedAmount)
	assert.Equal(t, "expense", resp.Type)
	assert.Equal(t, "Groceries", resp.Description)
	assert.ElementsMatch(t, []string{"food", "weekly"}, resp.Tags)

	// Overdraw is allowed for plain entries
	stored, _ := s.store.Account(account.ID)
	assert.Equal(t, "-150.5", stored.Balance.String())
}

func TestCreateTransaction_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/transactions", `{"type": "income", "date": "someday"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeJSON[ProblemDetails](t, rec)
	fields := make([]string, len(problem.Errors))
	for i, e := range problem.Errors {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"accountId", "amount", "date"}, fields)
}

func TestCreateTransaction_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	account := s.seedAccount(domain.AccountTypeChecking, "PLN", "100", time.Now())
	inactive := s.seedAccount(domain.AccountTypeSavings, "PLN", "100", time.Now())
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, fmt.Sprintf("/api/v1/accounts/%d/deactivate", inactive.ID), "").Code)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"negative amount", fmt.Sprintf(`{"accountId": %d, "amount": "-5", "type": "income"}`, account.ID), http.StatusBadRequest},
		{"unknown type", fmt.Sprintf(`{"accountId": %d, "amount": "5", "type": "gift"}`, account.ID), http.StatusBadRequest},
		{"inactive account", fmt.Sprintf(`{"accountId": %d, "amount": "5", "type": "income"}`, inactive.ID), http.StatusBadRequest},
		{"unknown account", `{"accountId": 9999, "amount": "5", "type": "income"}`, http.StatusNotFound},
		{"unknown category", fmt.Sprintf(`{"accountId": %d, "amount": "5", "type": "income", "categoryId": 9999}`, account.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/v1/transactions", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	// Nothing was booked by the rejected requests
	assert.Empty(t, s.store.Transactions())
}

func TestCreateTransfer(t *testing.T) {
	s := newTestServer(t)
	from := s.seedAccount(domain.AccountTypeChecking, "PLN", "500", time.Now())
	to := s.seedAccount(domain.AccountTypeSavings, "PLN", "0", time.Now())

	rec := s.do(http.MethodPost, "/api/v1/transactions/transfers",
		fmt.Sprintf(`{"fromAccountId": %d, "toAccountId": %d, "amount": "120", "description": "Savings"}`, from.ID, to.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[TransferResponse](t, rec)
	assert.NotEmpty(t, resp.PairID)
	assert.Equal(t, "transfer_out", resp.FromTransaction.Type)
	assert.Equal(t, "transfer_in", resp.ToTransaction.Type)
	require.NotNil(t, resp.FromTransaction.TransferPairID)
	assert.Equal(t, resp.PairID, *resp.FromTransaction.TransferPairID)

	fromAccount, _ := s.store.Account(from.ID)
	toAccount, _ := s.store.Account(to.ID)
	assert.Equal(t, "380", fromAccount.Balance.String())
	assert.Equal(t, "120", toAccount.Balance.String())

	rec = s.do(http.MethodPost, "/api/v1/transactions/transfers",
		fmt.Sprintf(`{"fromAccountId": %d, "toAccountId": %d, "amount": "1"}`, from.ID, from.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/transactions/transfers",
		fmt.Sprintf(`{"fromAccountId": %d, "toAccountId": %d, "amount": ""}`, from.ID, to.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactions_Filters(t *testing.T) {
	s := newTestServer(t)
	account := s.seedAccount(domain.AccountTypeChecking, "PLN", "0", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, body := range []string{
		`{"accountId": %d, "amount": "1000", "type": "income", "date": "2024-01-05", "description": "Salary"}`,
		`{"accountId": %d, "amount": "40", "type": "expense", "date": "2024-01-06", "description": "Coffee beans", "tags": ["food"]}`,
		`{"accountId": %d, "amount": "60", "type": "expense", "date": "2024-01-31", "description": "Dinner", "tags": ["food", "social"]}`,
		`{"accountId": %d, "amount": "15", "type": "expense", "date": "2024-02-01", "description": "Coffee"}`,
	} {
		rec := s.do(http.MethodPost, "/api/v1/transactions", fmt.Sprintf(body, account.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"all newest first", "", []string{"Coffee", "Dinner", "Coffee beans", "Salary"}},
		{"by type", "?type=expense", []string{"Coffee", "Dinner", "Coffee beans"}},
		{"january inclusive end", "?startDate=2024-01-01&endDate=2024-01-31", []string{"Dinner", "Coffee beans", "Salary"}},
		{"every tag", "?tags=food,social", []string{"Dinner"}},
		{"description", "?q=coffee", []string{"Coffee", "Coffee beans"}},
		{"paged", "?limit=2&offset=1", []string{"Dinner", "Coffee beans"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/v1/transactions"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			resp := decodeJSON[TransactionListResponse](t, rec)
			descriptions := make([]string, len(resp.Data))
			for i, tx := range resp.Data {
				descriptions[i] = tx.Description
			}
			assert.Equal(t, tt.expected, descriptions)
		})
	}
}

func TestGetTransactions_InvalidFilters(t *testing.T) {
	s := newTestServer(t)

	for _, query := range []string{
		"?accountId=x",
		"?limit=0",
		"?offset=-1",
		"?startDate=01/02/2024",
		"?type=gift",
		"?startDate=2024-02-01&endDate=2024-01-01",
	} {
		rec := s.do(http.MethodGet, "/api/v1/transactions"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetRecentTransactions(t *testing.T) {
	s := newTestServer(t)
	account := s.seedAccount(domain.AccountTypeChecking, "PLN", "0", time.Now().AddDate(-1, 0, 0))

	old := time.Now().AddDate(0, -2, 0).Format(dateLayout)
	for _, body := range []string{
		fmt.Sprintf(`{"accountId": %d, "amount": "10", "type": "income", "description": "old", "date": "%s"}`, account.ID, old),
		fmt.Sprintf(`{"accountId": %d, "amount": "10", "type": "income", "description": "new"}`, account.ID),
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/transactions", body).Code)
	}

	rec := s.do(http.MethodGet, "/api/v1/transactions/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[[]TransactionResponse](t, rec)
	require.Len(t, resp, 1)
	assert.Equal(t, "new", resp[0].Description)
}

func TestGetTransaction(t *testing.T) {
	s := newTestServer(t)
	account := s.seedAccount(domain.AccountTypeChecking, "PLN", "0", time.Now())

	rec := s.do(http.MethodPost, "/api/v1/transactions",
		fmt.Sprintf(`{"accountId": %d, "amount": "80", "type": "income", "description": "Refund"}`, account.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJSON[TransactionResponse](t, rec)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeJSON[TransactionResponse](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "80.00", got.Amount)
	assert.Equal(t, "Refund", got.Description)

	rec = s.doAs(uuid.New(), http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/transactions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// static segment wins over the id parameter
	rec = s.do(http.MethodGet, "/api/v1/transactions/recent", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
