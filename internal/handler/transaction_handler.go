package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/dafibh/fortuna/wealth-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	loc                *time.Location
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{
		transactionService: transactionService,
		loc:                loc,
	}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	AccountID   int32    `json:"accountId"`
	Amount      string   `json:"amount"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Date        *string  `json:"date,omitempty"`
	CategoryID  *int32   `json:"categoryId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsRecurring bool     `json:"isRecurring"`
}

// CreateTransferRequest represents the transfer request body
type CreateTransferRequest struct {
	FromAccountID int32   `json:"fromAccountId"`
	ToAccountID   int32   `json:"toAccountId"`
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	Date          *string `json:"date,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID             int32    `json:"id"`
	AccountID      int32    `json:"accountId"`
	Amount         string   `json:"amount"`
	SignedAmount   string   `json:"signedAmount"`
	Type           string   `json:"type"`
	TypeLabel      string   `json:"typeLabel"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	CategoryID     *int32   `json:"categoryId,omitempty"`
	Tags           []string `json:"tags"`
	IsRecurring    bool     `json:"isRecurring"`
	TransferPairID *string  `json:"transferPairId,omitempty"`
	CreatedAt      string   `json:"createdAt"`
}

// TransferResponse holds both legs of a transfer
type TransferResponse struct {
	PairID          string              `json:"pairId"`
	FromTransaction TransactionResponse `json:"fromTransaction"`
	ToTransaction   TransactionResponse `json:"toTransaction"`
}

// TransactionListResponse is one page of transactions
type TransactionListResponse struct {
	Data   []TransactionResponse `json:"data"`
	Limit  int32                 `json:"limit"`
	Offset int32                 `json:"offset"`
}

// CreateTransaction godoc
// @Summary Record a transaction
// @Description Append a journal entry and move the account balance by its signed amount
// @Tags transactions
// @Accept json
// @Produce json
// @Security UserID
// @Param request body CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var validationErrors []ValidationError
	if req.AccountID <= 0 {
		validationErrors = append(validationErrors, ValidationError{Field: "accountId", Message: "is required"})
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		validationErrors = append(validationErrors, ValidationError{Field: "amount", Message: err.Error()})
	}
	var date *time.Time
	if req.Date != nil {
		date, err = parseOptionalDate(*req.Date, h.loc)
		if err != nil {
			validationErrors = append(validationErrors, ValidationError{Field: "date", Message: err.Error()})
		}
	}
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Validation failed", validationErrors)
	}

	transaction, err := h.transactionService.RecordTransaction(c.Request().Context(), userID, service.RecordTransactionInput{
		AccountID:   req.AccountID,
		Amount:      amount,
		Type:        domain.TransactionType(req.Type),
		Description: req.Description,
		Date:        date,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		return respondError(c, err, "Failed to record transaction")
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("transaction_id", transaction.ID).
		Int32("account_id", transaction.AccountID).
		Str("type", string(transaction.Type)).
		Msg("Transaction recorded")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// CreateTransfer godoc
// @Summary Transfer between accounts
// @Description Records a transfer_out and a transfer_in sharing one pair ID, atomically
// @Tags transactions
// @Accept json
// @Produce json
// @Security UserID
// @Param request body CreateTransferRequest true "Transfer request"
// @Success 201 {object} TransferResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/transfers [post]
func (h *TransactionHandler) CreateTransfer(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateTransferRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{{Field: "amount", Message: err.Error()}})
	}
	var date *time.Time
	if req.Date != nil {
		if date, err = parseOptionalDate(*req.Date, h.loc); err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{{Field: "date", Message: err.Error()}})
		}
	}

	result, err := h.transactionService.Transfer(c.Request().Context(), userID, service.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Description:   req.Description,
		Date:          date,
	})
	if err != nil {
		return respondError(c, err, "Failed to create transfer")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("pair_id", result.PairID.String()).
		Int32("from_account_id", req.FromAccountID).
		Int32("to_account_id", req.ToAccountID).
		Msg("Transfer created")

	return c.JSON(http.StatusCreated, TransferResponse{
		PairID:          result.PairID.String(),
		FromTransaction: toTransactionResponse(result.FromTransaction),
		ToTransaction:   toTransactionResponse(result.ToTransaction),
	})
}

// GetTransactions godoc
// @Summary List transactions
// @Description Newest first, with optional filters
// @Tags transactions
// @Produce json
// @Security UserID
// @Param accountId query string false "Account IDs, comma separated"
// @Param categoryId query int false "Category ID"
// @Param type query string false "Transaction types, comma separated"
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD), inclusive"
// @Param tags query string false "Tags the entry must all carry, comma separated"
// @Param q query string false "Description contains"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} TransactionListResponse
// @Failure 400 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filter, validationErrors := h.parseFilter(c)
	if len(validationErrors) > 0 {
		return NewValidationError(c, "Invalid filter", validationErrors)
	}

	transactions, err := h.transactionService.ListTransactions(c.Request().Context(), userID, filter)
	if err != nil {
		return respondError(c, err, "Failed to list transactions")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	if limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	return c.JSON(http.StatusOK, TransactionListResponse{
		Data:   toTransactionResponses(transactions),
		Limit:  limit,
		Offset: filter.Offset,
	})
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Security UserID
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransaction(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, err, "Failed to get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// GetRecentTransactions godoc
// @Summary Recent transactions
// @Description Latest entries from the last 30 days
// @Tags transactions
// @Produce json
// @Security UserID
// @Success 200 {array} TransactionResponse
// @Router /transactions/recent [get]
func (h *TransactionHandler) GetRecentTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	transactions, err := h.transactionService.RecentTransactions(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to get recent transactions")
	}
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

func (h *TransactionHandler) parseFilter(c echo.Context) (domain.TransactionFilter, []ValidationError) {
	var (
		filter domain.TransactionFilter
		errs   []ValidationError
	)

	for _, raw := range splitList(c.QueryParam("accountId")) {
		id, err := parseOptionalID(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: "accountId", Message: err.Error()})
			continue
		}
		filter.AccountIDs = append(filter.AccountIDs, *id)
	}

	categoryID, err := parseOptionalID(c.QueryParam("categoryId"))
	if err != nil {
		errs = append(errs, ValidationError{Field: "categoryId", Message: err.Error()})
	}
	filter.CategoryID = categoryID

	for _, raw := range splitList(c.QueryParam("type")) {
		filter.Types = append(filter.Types, domain.TransactionType(raw))
	}

	if raw := c.QueryParam("startDate"); raw != "" {
		from, err := parseDate(raw, h.loc)
		if err != nil {
			errs = append(errs, ValidationError{Field: "startDate", Message: err.Error()})
		} else {
			filter.From = &from
		}
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		to, err := parseDate(raw, h.loc)
		if err != nil {
			errs = append(errs, ValidationError{Field: "endDate", Message: err.Error()})
		} else {
			if _, rfcErr := time.Parse(time.RFC3339, raw); rfcErr != nil {
				to = util.DayEnd(to, h.loc)
			}
			filter.To = &to
		}
	}

	filter.Tags = splitList(c.QueryParam("tags"))
	filter.Description = strings.TrimSpace(c.QueryParam("q"))

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || limit < 1 {
			errs = append(errs, ValidationError{Field: "limit", Message: "must be a positive integer"})
		} else {
			filter.Limit = int32(limit)
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || offset < 0 {
			errs = append(errs, ValidationError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			filter.Offset = int32(offset)
		}
	}

	return filter, errs
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Amount:       t.Amount.StringFixed(2),
		SignedAmount: t.SignedAmount().StringFixed(2),
		Type:         string(t.Type),
		TypeLabel:    t.Type.Label(),
		Description:  t.Description,
		Date:         t.Date.Format(time.RFC3339),
		CategoryID:   t.CategoryID,
		Tags:         t.Tags,
		IsRecurring:  t.IsRecurring,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.TransferPairID != nil {
		pair := t.TransferPairID.String()
		resp.TransferPairID = &pair
	}
	return resp
}

func toTransactionResponses(transactions []*domain.Transaction) []TransactionResponse {
	response := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		response[i] = toTransactionResponse(t)
	}
	return response
}
