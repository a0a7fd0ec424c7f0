package repositories

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
)

// TransactionCursor marks the last row of a previous page when listing newest first.
type TransactionCursor struct {
	Date          civil.Date
	TransactionID string
}

// TransactionReader defines read operations for transactions
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction without locking it.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccount lists an account's transactions ordered by date
	// and id descending, starting after cursor when it is not nil.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit int, cursor *TransactionCursor) ([]domain.Transaction, error)

	// ListTransactionsByOwner lists all transactions of an owner dated within [from, to].
	ListTransactionsByOwner(ctx context.Context, ownerID string, from, to civil.Date) ([]domain.Transaction, error)
}

// TransactionValuationRepository serves the valuation backfill.
type TransactionValuationRepository interface {
	// FindTransactionsMissingValuation returns up to limit rows whose amount_usd
	// or exchange_rate_used is null, ordered by date then id. Dates deferred
	// beyond asOf are left out.
	FindTransactionsMissingValuation(ctx context.Context, asOf time.Time, limit int) ([]domain.Transaction, error)

	// UpdateTransactionValuations writes valuations for rows that still lack one
	// and still hold the amount, currency and date each valuation was computed
	// from. It returns how many rows changed.
	UpdateTransactionValuations(ctx context.Context, valuations []domain.TransactionValuation) (int, error)

	// DeferValuationDates keeps rows on dates out of FindTransactionsMissingValuation until until.
	DeferValuationDates(ctx context.Context, dates []civil.Date, until time.Time) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionValuationRepository
}
