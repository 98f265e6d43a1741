package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecentWindow is how far back RecentTransactions looks
const RecentWindow = 30 * 24 * time.Hour

// TransactionService is the only writer of account balances. Every entry it
// records moves the cached balance by the entry's signed amount in the same
// atomic unit.
type TransactionService struct {
	store          domain.Store
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(store domain.Store) *TransactionService {
	return &TransactionService{
		store: store,
		now:   time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *TransactionService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// RecordTransactionInput holds the input for recording a journal entry
type RecordTransactionInput struct {
	AccountID   int32
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Description string
	Date        *time.Time
	CategoryID  *int32
	Tags        []string
	IsRecurring bool
}

// RecordTransaction appends an entry and applies its signed amount to the account balance
func (s *TransactionService) RecordTransaction(ctx context.Context, userID uuid.UUID, input RecordTransactionInput) (*domain.Transaction, error) {
	if input.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.FitsScale(input.Amount, domain.AmountScale) {
		return nil, domain.ErrAmountPrecision
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidTransactionType
	}
	description := strings.TrimSpace(input.Description)
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}

	entry := &domain.Transaction{
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Type:        input.Type,
		CategoryID:  input.CategoryID,
		Description: description,
		Date:        date,
		IsRecurring: input.IsRecurring,
		Tags:        normalizeTags(input.Tags),
	}

	var created *domain.Transaction
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if entry.CategoryID != nil {
			if _, err := repos.Categories.GetByID(ctx, userID, *entry.CategoryID); err != nil {
				return err
			}
		}
		account, err := lockActiveAccount(ctx, repos, userID, entry.AccountID)
		if err != nil {
			return err
		}
		created, _, err = postEntry(ctx, repos, account, entry, false)
		return err
	})
	if err != nil {
		return nil, domain.AtomicityFailure(err)
	}

	s.publishEvent(userID, websocket.TransactionCreated(created))
	return created, nil
}

// TransferInput holds the input for moving money between two accounts
type TransferInput struct {
	FromAccountID int32
	ToAccountID   int32
	Amount        decimal.Decimal
	Description   string
	Date          *time.Time
}

// Transfer records a transfer_out on the source and a transfer_in on the
// destination in one atomic unit. Both legs share a pair ID.
func (s *TransactionService) Transfer(ctx context.Context, userID uuid.UUID, input TransferInput) (*domain.TransferResult, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.FitsScale(input.Amount, domain.AmountScale) {
		return nil, domain.ErrAmountPrecision
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccountTransfer
	}
	description := strings.TrimSpace(input.Description)
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}
	pairID := uuid.New()

	result := &domain.TransferResult{PairID: pairID}
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		// Lock in ID order so opposite transfers between the same pair cannot deadlock
		first, second := input.FromAccountID, input.ToAccountID
		if first > second {
			first, second = second, first
		}
		locked := make(map[int32]*domain.Account, 2)
		for _, id := range []int32{first, second} {
			account, err := lockActiveAccount(ctx, repos, userID, id)
			if err != nil {
				return err
			}
			locked[id] = account
		}

		var err error
		result.FromTransaction, _, err = postEntry(ctx, repos, locked[input.FromAccountID], &domain.Transaction{
			AccountID:      input.FromAccountID,
			Amount:         input.Amount,
			Type:           domain.TransactionTypeTransferOut,
			Description:    description,
			Date:           date,
			Tags:           []string{},
			TransferPairID: &pairID,
		}, false)
		if err != nil {
			return err
		}
		result.ToTransaction, _, err = postEntry(ctx, repos, locked[input.ToAccountID], &domain.Transaction{
			AccountID:      input.ToAccountID,
			Amount:         input.Amount,
			Type:           domain.TransactionTypeTransferIn,
			Description:    description,
			Date:           date,
			Tags:           []string{},
			TransferPairID: &pairID,
		}, false)
		return err
	})
	if err != nil {
		return nil, domain.AtomicityFailure(err)
	}

	s.publishEvent(userID, websocket.TransactionCreated(result.FromTransaction))
	s.publishEvent(userID, websocket.TransactionCreated(result.ToTransaction))
	return result, nil
}

// ListTransactions returns the user's entries matching filter, newest first
func (s *TransactionService) ListTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidDateRange
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, domain.ErrInvalidTransactionType
		}
	}
	filter.UserID = userID
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultPageSize
	}
	if filter.Limit > domain.MaxPageSize {
		filter.Limit = domain.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Tags = normalizeTags(filter.Tags)

	transactions, err := s.store.Repos().Transactions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	return transactions, nil
}

// GetTransaction returns one entry on any of the user's accounts
func (s *TransactionService) GetTransaction(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	return s.store.Repos().Transactions.GetByID(ctx, userID, id)
}

// RecentTransactions returns the latest page of entries from the last 30 days
func (s *TransactionService) RecentTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	from := s.now().Add(-RecentWindow)
	return s.ListTransactions(ctx, userID, domain.TransactionFilter{
		From:  &from,
		Limit: domain.DefaultPageSize,
	})
}

// lockActiveAccount loads and row-locks an account that can take new entries
func lockActiveAccount(ctx context.Context, repos domain.Repositories, userID uuid.UUID, accountID int32) (*domain.Account, error) {
	account, err := repos.Accounts.GetForUpdate(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return account, nil
}

// postEntry inserts entry and moves the account balance by its signed amount.
// With guard set the balance update refuses to go below zero. Must be called
// inside RunInTx with the account already locked.
func postEntry(ctx context.Context, repos domain.Repositories, account *domain.Account, entry *domain.Transaction, guard bool) (*domain.Transaction, decimal.Decimal, error) {
	// The stored amount and the balance delta must round identically
	entry.Amount = domain.RoundAmount(entry.Amount)
	created, err := repos.Transactions.Create(ctx, entry)
	if err != nil {
		return nil, decimal.Zero, err
	}

	delta := entry.Type.SignedAmount(entry.Amount)
	var balance decimal.Decimal
	if guard {
		balance, err = repos.Accounts.ApplyDeltaIfCovered(ctx, account.ID, delta)
	} else {
		balance, err = repos.Accounts.ApplyDelta(ctx, account.ID, delta)
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	return created, balance, nil
}

// normalizeTags trims, drops empty and oversized tags, and de-duplicates
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > domain.MaxTagLength || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
