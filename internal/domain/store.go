package domain

import "context"

// Repositories groups every ledger repository bound to the same connection
// or the same atomic unit.
type Repositories struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
	Assets       AssetRepository
	PriceHistory PriceHistoryRepository
	Categories   CategoryRepository
	Budgets      BudgetRepository
	Goals        GoalRepository
}

// Store is the ledger's single source of truth
type Store interface {
	// Repos returns repositories that run each call on its own
	Repos() Repositories
	// RunInTx runs fn as one atomic unit. Any error returned by fn, a panic,
	// or a cancelled ctx rolls back every write made through the given repos.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
