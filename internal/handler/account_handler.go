package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	balanceService *service.BalanceService
	loc            *time.Location
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, balanceService *service.BalanceService, loc *time.Location) *AccountHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AccountHandler{
		accountService: accountService,
		balanceService: balanceService,
		loc:            loc,
	}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	TypeLabel string `json:"typeLabel"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// BalanceResponse is an account balance at a point in time
type BalanceResponse struct {
	AccountID int32  `json:"accountId"`
	Currency  string `json:"currency"`
	Date      string `json:"date"`
	Balance   string `json:"balance"`
}

// CreateAccount godoc
// @Summary Create an account
// @Description Create an account; a non-zero initial balance is booked as an opening entry
// @Tags accounts
// @Accept json
// @Produce json
// @Security UserID
// @Param request body CreateAccountRequest true "Account creation request"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance, err := parseAmount(req.InitialBalance, true)
	if err != nil {
		return NewValidationError(c, "Invalid initial balance", []ValidationError{
			{Field: "initialBalance", Message: err.Error()},
		})
	}
	if req.Currency == "" {
		req.Currency = domain.ReportingCurrency
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), userID, service.CreateAccountInput{
		Name:           req.Name,
		Type:           domain.AccountType(req.Type),
		Currency:       req.Currency,
		InitialBalance: initialBalance,
	})
	if err != nil {
		return respondError(c, err, "Failed to create account")
	}

	log.Info().Str("user_id", userID.String()).Int32("account_id", account.ID).Str("type", string(account.Type)).Msg("Account created")

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts godoc
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Security UserID
// @Param includeInactive query bool false "Include deactivated accounts"
// @Success 200 {array} AccountResponse
// @Failure 401 {object} ProblemDetails
// @Router /accounts [get]
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	includeInactive := c.QueryParam("includeInactive") == "true"

	accounts, err := h.accountService.GetAccounts(c.Request().Context(), userID, includeInactive)
	if err != nil {
		return respondError(c, err, "Failed to get accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = toAccountResponse(account)
	}
	return c.JSON(http.StatusOK, response)
}

// GetAccount godoc
// @Summary Get an account
// @Tags accounts
// @Produce json
// @Security UserID
// @Param id path int true "Account ID"
// @Success 200 {object} AccountResponse
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccountByID(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get account")
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeactivateAccount godoc
// @Summary Deactivate an account
// @Description The account stops taking entries; its history still counts towards past net worth
// @Tags accounts
// @Produce json
// @Security UserID
// @Param id path int true "Account ID"
// @Success 200 {object} AccountResponse
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id}/deactivate [patch]
func (h *AccountHandler) DeactivateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.DeactivateAccount(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to deactivate account")
	}

	log.Info().Str("user_id", userID.String()).Int32("account_id", id).Msg("Account deactivated")

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// GetBalance godoc
// @Summary Account balance as of a date
// @Description Replays the journal back from the current balance; a plain date means the end of that day
// @Tags accounts
// @Produce json
// @Security UserID
// @Param id path int true "Account ID"
// @Param date query string false "YYYY-MM-DD or RFC 3339, defaults to now"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /accounts/{id}/balance [get]
func (h *AccountHandler) GetBalance(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}
	asOf, err := parseAsOf(c.QueryParam("date"), h.loc, time.Now())
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{{Field: "date", Message: err.Error()}})
	}

	ctx := c.Request().Context()
	account, err := h.accountService.GetAccountByID(ctx, userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get account")
	}
	balance, err := h.balanceService.BalanceAsOf(ctx, userID, id, asOf)
	if err != nil {
		return respondError(c, err, "Failed to reconstruct balance")
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		AccountID: id,
		Currency:  account.Currency,
		Date:      asOf.Format(time.RFC3339),
		Balance:   domain.RoundToCurrency(balance, account.Currency).StringFixed(2),
	})
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Type:      string(account.Type),
		TypeLabel: account.Type.Label(),
		Currency:  account.Currency,
		Balance:   account.Balance.StringFixed(2),
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.Format(time.RFC3339),
	}
}
