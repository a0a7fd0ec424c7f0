package repositories

import (
	"context"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts owned by a user.
	ListAccounts(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data.
// Balances are not written here; see LedgerTx.
type AccountWriter interface {
	// SaveAccount persists a new account with its opening balance.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
