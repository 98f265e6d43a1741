package service

import (
	"context"
	"strings"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpeningBalanceDescription labels the entry that funds a new account
const OpeningBalanceDescription = "Opening balance"

// AccountService handles account-related business logic
type AccountService struct {
	store domain.Store
}

// NewAccountService creates a new AccountService
func NewAccountService(store domain.Store) *AccountService {
	return &AccountService{store: store}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	Type           domain.AccountType
	Currency       string
	InitialBalance decimal.Decimal
}

// CreateAccount creates an account. A non-zero initial balance is booked as an
// opening income (or expense, when negative) entry so the journal explains it.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidAccountType
	}
	if !domain.FitsScale(input.InitialBalance, domain.AmountScale) {
		return nil, domain.ErrAmountPrecision
	}
	currency, err := domain.NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	var account *domain.Account
	err = s.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		account, err = repos.Accounts.Create(ctx, &domain.Account{
			UserID:   userID,
			Name:     name,
			Type:     input.Type,
			Currency: currency,
			Balance:  decimal.Zero,
			IsActive: true,
		})
		if err != nil {
			return err
		}
		if input.InitialBalance.IsZero() {
			return nil
		}

		entryType := domain.TransactionTypeIncome
		if input.InitialBalance.IsNegative() {
			entryType = domain.TransactionTypeExpense
		}
		_, balance, err := postEntry(ctx, repos, account, &domain.Transaction{
			AccountID:   account.ID,
			Amount:      input.InitialBalance.Abs(),
			Type:        entryType,
			Description: OpeningBalanceDescription,
			Date:        account.CreatedAt,
			Tags:        []string{},
		}, false)
		if err != nil {
			return err
		}
		account.Balance = balance
		return nil
	})
	if err != nil {
		return nil, domain.AtomicityFailure(err)
	}
	return account, nil
}

// GetAccounts retrieves the user's accounts
func (s *AccountService) GetAccounts(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	accounts, err := s.store.Repos().Accounts.GetAllByUser(ctx, userID, includeInactive)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return accounts, nil
}

// GetAccountByID retrieves one of the user's accounts
func (s *AccountService) GetAccountByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	return s.store.Repos().Accounts.GetByID(ctx, userID, id)
}

// DeactivateAccount stops an account from taking new entries. Its history
// still counts towards past net worth.
func (s *AccountService) DeactivateAccount(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	return s.store.Repos().Accounts.SetActive(ctx, userID, id, false)
}
