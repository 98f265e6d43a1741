package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of domain.Store. RunInTx works on
// a private copy of the data and swaps it in only on success, so a failed unit
// leaves nothing behind. Units are serialised, like row locks would serialise
// them on the same account. Decimal columns are rounded on write to the scales
// of the Postgres schema.
type MemoryStore struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	data   *memData
	failOn map[string]error

	commits   int
	rollbacks int
}

type memData struct {
	accounts     map[int32]domain.Account
	transactions []domain.Transaction
	assets       map[int32]domain.Asset
	prices       []domain.AssetPricePoint
	categories   map[int32]domain.Category
	budgets      map[int32]domain.Budget
	goals        map[int32]domain.Goal
	nextID       int32
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memData{
			accounts:   make(map[int32]domain.Account),
			assets:     make(map[int32]domain.Asset),
			categories: make(map[int32]domain.Category),
			budgets:    make(map[int32]domain.Budget),
			goals:      make(map[int32]domain.Goal),
		},
		failOn: make(map[string]error),
	}
}

var _ domain.Store = (*MemoryStore)(nil)

func (d *memData) clone() *memData {
	c := &memData{
		accounts:     make(map[int32]domain.Account, len(d.accounts)),
		transactions: append([]domain.Transaction(nil), d.transactions...),
		assets:       make(map[int32]domain.Asset, len(d.assets)),
		prices:       append([]domain.AssetPricePoint(nil), d.prices...),
		categories:   make(map[int32]domain.Category, len(d.categories)),
		budgets:      make(map[int32]domain.Budget, len(d.budgets)),
		goals:        make(map[int32]domain.Goal, len(d.goals)),
		nextID:       d.nextID,
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.assets {
		c.assets[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.budgets {
		c.budgets[k] = v
	}
	for k, v := range d.goals {
		c.goals[k] = v
	}
	return c
}

// money and unit mirror the NUMERIC(20,8) and NUMERIC(28,12) casts Postgres
// applies on write
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.AmountScale)
}

func unit(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.QuantityScale)
}

func (d *memData) id() int32 {
	d.nextID++
	return d.nextID
}

// FailOn makes every call to op (e.g. "Assets.Update") return err until cleared
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

// ClearFailures removes every injected failure
func (s *MemoryStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = make(map[string]error)
}

func (s *MemoryStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failOn[op]
}

// Commits returns the number of committed atomic units
func (s *MemoryStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns the number of rolled back atomic units
func (s *MemoryStore) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Repos returns repositories that act on the committed data directly
func (s *MemoryStore) Repos() domain.Repositories {
	return s.repos(func(fn func(d *memData) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.data)
	})
}

// RunInTx runs fn against a copy of the data and commits it only if fn succeeds
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	working := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.mu.Lock()
			s.rollbacks++
			s.mu.Unlock()
			panic(p)
		}
	}()

	err = fn(ctx, s.repos(func(f func(d *memData) error) error {
		return f(working)
	}))
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = s.fail("Commit")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollbacks++
		return err
	}
	s.data = working
	s.commits++
	return nil
}

func (s *MemoryStore) repos(with func(func(d *memData) error) error) domain.Repositories {
	b := &memBinding{store: s, with: with}
	return domain.Repositories{
		Accounts:     &memAccounts{b},
		Transactions: &memTransactions{b},
		Assets:       &memAssets{b},
		PriceHistory: &memPriceHistory{b},
		Categories:   &memCategories{b},
		Budgets:      &memBudgets{b},
		Goals:        &memGoals{b},
	}
}

type memBinding struct {
	store *MemoryStore
	with  func(func(d *memData) error) error
}

func (b *memBinding) run(op string, fn func(d *memData) error) error {
	if err := b.store.fail(op); err != nil {
		return err
	}
	return b.with(fn)
}

// Seeding and inspection helpers

// AddAccount inserts an account as-is and returns it with an ID assigned
func (s *MemoryStore) AddAccount(account domain.Account) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.ID = s.data.id()
	account.Balance = money(account.Balance)
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.UpdatedAt = account.CreatedAt
	s.data.accounts[account.ID] = account
	return &account
}

// AddCategory inserts a category and returns it with an ID assigned
func (s *MemoryStore) AddCategory(category domain.Category) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = s.data.id()
	s.data.categories[category.ID] = category
	return &category
}

// Account returns the committed state of an account
func (s *MemoryStore) Account(id int32) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[id]
	return a, ok
}

// Transactions returns every committed journal entry in insertion order
func (s *MemoryStore) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.data.transactions...)
}

// Position returns the committed position of symbol in an account
func (s *MemoryStore) Position(accountID int32, symbol string) (domain.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.data.assets {
		if a.AccountID == accountID && a.Symbol == symbol {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// PricePoints returns every committed price history row
func (s *MemoryStore) PricePoints() []domain.AssetPricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AssetPricePoint(nil), s.data.prices...)
}

// Accounts

type memAccounts struct{ *memBinding }

func (r *memAccounts) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	var out domain.Account
	err := r.run("Accounts.Create", func(d *memData) error {
		a := *account
		a.ID = d.id()
		a.Balance = money(a.Balance)
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
		d.accounts[a.ID] = a
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAccounts) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	var out domain.Account
	err := r.run("Accounts.GetByID", func(d *memData) error {
		a, ok := d.accounts[id]
		if !ok || a.UserID != userID {
			return domain.ErrAccountNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAccounts) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Account, error) {
	if err := r.store.fail("Accounts.GetForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID, id)
}

func (r *memAccounts) GetAllByUser(ctx context.Context, userID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.run("Accounts.GetAllByUser", func(d *memData) error {
		for _, a := range d.accounts {
			if a.UserID != userID || (!a.IsActive && !includeInactive) {
				continue
			}
			a := a
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *memAccounts) SetActive(ctx context.Context, userID uuid.UUID, id int32, active bool) (*domain.Account, error) {
	var out domain.Account
	err := r.run("Accounts.SetActive", func(d *memData) error {
		a, ok := d.accounts[id]
		if !ok || a.UserID != userID {
			return domain.ErrAccountNotFound
		}
		a.IsActive = active
		a.UpdatedAt = time.Now()
		d.accounts[id] = a
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAccounts) OwnerOf(ctx context.Context, id int32) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.run("Accounts.OwnerOf", func(d *memData) error {
		a, ok := d.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		owner = a.UserID
		return nil
	})
	return owner, err
}

func (r *memAccounts) ApplyDelta(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.run("Accounts.ApplyDelta", func(d *memData) error {
		a, ok := d.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		a.Balance = money(a.Balance.Add(delta))
		d.accounts[id] = a
		balance = a.Balance
		return nil
	})
	return balance, err
}

func (r *memAccounts) ApplyDeltaIfCovered(ctx context.Context, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.run("Accounts.ApplyDeltaIfCovered", func(d *memData) error {
		a, ok := d.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		next := a.Balance.Add(delta)
		if next.IsNegative() {
			return domain.InsufficientFundsError{Required: delta.Neg(), Available: a.Balance}
		}
		a.Balance = money(next)
		d.accounts[id] = a
		balance = a.Balance
		return nil
	})
	return balance, err
}

// Transactions

type memTransactions struct{ *memBinding }

func (r *memTransactions) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	var out domain.Transaction
	err := r.run("Transactions.Create", func(d *memData) error {
		if _, ok := d.accounts[transaction.AccountID]; !ok {
			return domain.ErrInvalidArgument
		}
		t := *transaction
		t.ID = d.id()
		t.Amount = money(t.Amount)
		t.Tags = append([]string{}, transaction.Tags...)
		t.CreatedAt = time.Now()
		d.transactions = append(d.transactions, t)
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memTransactions) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	var out domain.Transaction
	err := r.run("Transactions.GetByID", func(d *memData) error {
		for _, t := range d.transactions {
			if t.ID == id && d.accounts[t.AccountID].UserID == userID {
				out = t
				return nil
			}
		}
		return domain.ErrTransactionNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memTransactions) matching(d *memData, filter domain.TransactionFilter) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range d.transactions {
		if matchesFilter(d, t, filter) {
			out = append(out, t)
		}
	}
	return out
}

func (r *memTransactions) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.run("Transactions.List", func(d *memData) error {
		matched := r.matching(d, filter)
		sort.SliceStable(matched, func(i, j int) bool {
			if !matched[i].Date.Equal(matched[j].Date) {
				return matched[i].Date.After(matched[j].Date)
			}
			return matched[i].ID > matched[j].ID
		})
		if filter.Offset > 0 {
			if int(filter.Offset) >= len(matched) {
				matched = nil
			} else {
				matched = matched[filter.Offset:]
			}
		}
		if filter.Limit > 0 && int(filter.Limit) < len(matched) {
			matched = matched[:filter.Limit]
		}
		for i := range matched {
			out = append(out, &matched[i])
		}
		return nil
	})
	return out, err
}

func (r *memTransactions) Sum(ctx context.Context, filter domain.TransactionFilter) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.run("Transactions.Sum", func(d *memData) error {
		for _, t := range r.matching(d, filter) {
			total = total.Add(t.Amount)
		}
		return nil
	})
	return total, err
}

func (r *memTransactions) TotalsByAccountAndType(ctx context.Context, filter domain.TransactionFilter) ([]domain.TypeTotal, error) {
	var out []domain.TypeTotal
	err := r.run("Transactions.TotalsByAccountAndType", func(d *memData) error {
		type key struct {
			account int32
			typ     domain.TransactionType
		}
		totals := make(map[key]decimal.Decimal)
		for _, t := range r.matching(d, filter) {
			k := key{t.AccountID, t.Type}
			totals[k] = totals[k].Add(t.Amount)
		}
		for k, v := range totals {
			out = append(out, domain.TypeTotal{AccountID: k.account, Type: k.typ, Total: v})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].Type < out[j].Type
	})
	return out, err
}

func matchesFilter(d *memData, t domain.Transaction, f domain.TransactionFilter) bool {
	if d.accounts[t.AccountID].UserID != f.UserID {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsInt32(f.AccountIDs, t.AccountID) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, typ := range f.Types {
			if typ == t.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	if f.After != nil && !t.Date.After(*f.After) {
		return false
	}
	for _, tag := range f.Tags {
		found := false
		for _, have := range t.Tags {
			if have == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Description != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Description)) {
		return false
	}
	return true
}

func containsInt32(list []int32, v int32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Assets

type memAssets struct{ *memBinding }

func (r *memAssets) Create(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	var out domain.Asset
	err := r.run("Assets.Create", func(d *memData) error {
		for _, a := range d.assets {
			if a.AccountID == asset.AccountID && a.Symbol == asset.Symbol {
				return domain.ErrInvalidArgument
			}
		}
		a := *asset
		a.ID = d.id()
		a.Quantity = unit(a.Quantity)
		a.AvgBuyPrice = unit(a.AvgBuyPrice)
		a.CurrentPrice = unit(a.CurrentPrice)
		d.assets[a.ID] = a
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAssets) find(op string, accountID int32, symbol string) (*domain.Asset, error) {
	var out domain.Asset
	err := r.run(op, func(d *memData) error {
		for _, a := range d.assets {
			if a.AccountID == accountID && a.Symbol == symbol {
				out = a
				return nil
			}
		}
		return domain.ErrPositionNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAssets) Get(ctx context.Context, accountID int32, symbol string) (*domain.Asset, error) {
	return r.find("Assets.Get", accountID, symbol)
}

func (r *memAssets) GetForUpdate(ctx context.Context, accountID int32, symbol string) (*domain.Asset, error) {
	return r.find("Assets.GetForUpdate", accountID, symbol)
}

func (r *memAssets) Update(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	var out domain.Asset
	err := r.run("Assets.Update", func(d *memData) error {
		existing, ok := d.assets[asset.ID]
		if !ok {
			return domain.ErrPositionNotFound
		}
		existing.Quantity = unit(asset.Quantity)
		existing.AvgBuyPrice = unit(asset.AvgBuyPrice)
		existing.CurrentPrice = unit(asset.CurrentPrice)
		existing.LastUpdated = asset.LastUpdated
		d.assets[asset.ID] = existing
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memAssets) Delete(ctx context.Context, id int32) error {
	return r.run("Assets.Delete", func(d *memData) error {
		if _, ok := d.assets[id]; !ok {
			return domain.ErrPositionNotFound
		}
		delete(d.assets, id)
		return nil
	})
}

func (r *memAssets) ListByAccount(ctx context.Context, accountID int32) ([]*domain.Asset, error) {
	var out []*domain.Asset
	err := r.run("Assets.ListByAccount", func(d *memData) error {
		for _, a := range d.assets {
			if a.AccountID == accountID {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, err
}

func (r *memAssets) DistinctSymbols(ctx context.Context) ([]string, error) {
	var out []string
	err := r.run("Assets.DistinctSymbols", func(d *memData) error {
		seen := make(map[string]bool)
		for _, a := range d.assets {
			if a.Quantity.IsPositive() && !seen[a.Symbol] {
				seen[a.Symbol] = true
				out = append(out, a.Symbol)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (r *memAssets) UpdatePriceBySymbol(ctx context.Context, symbol string, price decimal.Decimal, at time.Time) ([]*domain.Asset, error) {
	var out []*domain.Asset
	err := r.run("Assets.UpdatePriceBySymbol", func(d *memData) error {
		for id, a := range d.assets {
			if a.Symbol != symbol {
				continue
			}
			a.CurrentPrice = unit(price)
			a.LastUpdated = at
			d.assets[id] = a
			a := a
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// Price history

type memPriceHistory struct{ *memBinding }

func (r *memPriceHistory) Create(ctx context.Context, point *domain.AssetPricePoint) error {
	return r.run("PriceHistory.Create", func(d *memData) error {
		p := *point
		p.ID = d.id()
		p.Price = unit(p.Price)
		d.prices = append(d.prices, p)
		return nil
	})
}

func (r *memPriceHistory) ListByAsset(ctx context.Context, assetID int32, limit int32) ([]*domain.AssetPricePoint, error) {
	var out []*domain.AssetPricePoint
	err := r.run("PriceHistory.ListByAsset", func(d *memData) error {
		for _, p := range d.prices {
			if p.AssetID == assetID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, err
}

// Categories

type memCategories struct{ *memBinding }

func (r *memCategories) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	var out domain.Category
	err := r.run("Categories.Create", func(d *memData) error {
		c := *category
		c.ID = d.id()
		c.CreatedAt = time.Now()
		d.categories[c.ID] = c
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memCategories) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Category, error) {
	var out domain.Category
	err := r.run("Categories.GetByID", func(d *memData) error {
		c, ok := d.categories[id]
		if !ok || c.UserID != userID {
			return domain.ErrCategoryNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memCategories) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	var out []*domain.Category
	err := r.run("Categories.GetAllByUser", func(d *memData) error {
		for _, c := range d.categories {
			if c.UserID == userID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Budgets

type memBudgets struct{ *memBinding }

func (r *memBudgets) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	var out domain.Budget
	err := r.run("Budgets.Create", func(d *memData) error {
		b := *budget
		b.ID = d.id()
		b.Amount = money(b.Amount)
		b.CreatedAt = time.Now()
		d.budgets[b.ID] = b
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memBudgets) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	var out domain.Budget
	err := r.run("Budgets.GetByID", func(d *memData) error {
		b, ok := d.budgets[id]
		if !ok || b.UserID != userID {
			return domain.ErrBudgetNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memBudgets) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	var out []*domain.Budget
	err := r.run("Budgets.GetAllByUser", func(d *memData) error {
		for _, b := range d.budgets {
			if b.UserID == userID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// Goals

type memGoals struct{ *memBinding }

func (r *memGoals) Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	var out domain.Goal
	err := r.run("Goals.Create", func(d *memData) error {
		g := *goal
		g.ID = d.id()
		g.TargetAmount = money(g.TargetAmount)
		g.CreatedAt = time.Now()
		g.UpdatedAt = g.CreatedAt
		d.goals[g.ID] = g
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memGoals) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	return r.run("Goals.Delete", func(d *memData) error {
		g, ok := d.goals[id]
		if !ok || g.UserID != userID {
			return domain.ErrGoalNotFound
		}
		delete(d.goals, id)
		return nil
	})
}

func (r *memGoals) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Goal, error) {
	var out []*domain.Goal
	err := r.run("Goals.GetAllByUser", func(d *memData) error {
		for _, g := range d.goals {
			if g.UserID == userID && g.IsActive {
				g := g
				out = append(out, &g)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}
