package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerTx exposes the row-locking reads and the writes that make up one ledger
// write. Every method runs inside the store transaction opened by RunInTx.
type LedgerTx interface {
	// LockTransaction loads a transaction row and locks it until the unit of work ends.
	LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// LockAccounts loads and locks the given accounts. It fails with ErrNotFound
	// if any of them is missing.
	LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// SetAccountBalance stores an already rounded balance.
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal, userID string, now time.Time) error

	// InsertTransaction persists a new transaction row.
	InsertTransaction(ctx context.Context, transaction domain.Transaction) error

	// UpdateTransaction overwrites an existing transaction row.
	UpdateTransaction(ctx context.Context, transaction domain.Transaction) error

	// DeleteTransaction removes a transaction row.
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// LedgerStore runs fn as a single all-or-nothing unit of work.
// If fn returns an error every change made through tx is discarded.
type LedgerStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
