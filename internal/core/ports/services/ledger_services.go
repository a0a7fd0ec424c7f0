package services

import (
	"context"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// TransactionWriterSvc applies transaction writes and keeps account balances
// equal to the sum of the signed deltas of their transactions.
type TransactionWriterSvc interface {
	// ApplyTransactionWrite dispatches a create, update or delete. req is
	// ignored for deletes and transactionID is ignored for creates.
	ApplyTransactionWrite(ctx context.Context, userID string, kind domain.WriteKind, transactionID string, req *dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error)

	CreateTransaction(ctx context.Context, userID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error)
	UpdateTransaction(ctx context.Context, userID string, transactionID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error)
	DeleteTransaction(ctx context.Context, userID string, transactionID string) (*domain.LedgerWriteResult, error)
}

// TransactionReaderSvc defines read operations for transactions
type TransactionReaderSvc interface {
	GetTransactionByID(ctx context.Context, userID string, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccount pages through an account's transactions newest
	// first. Rows without a stored valuation are valued on the fly.
	ListTransactionsByAccount(ctx context.Context, userID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// BalanceWriterSvc records a balance adjustment against the locked account row.
type BalanceWriterSvc interface {
	// WriteBalanceAdjustment computes round(Target - balance, 2) while holding
	// the account lock and inserts the matching income or expense. Transaction
	// is nil in the result when the balance already equals Target.
	WriteBalanceAdjustment(ctx context.Context, userID string, adj domain.BalanceAdjustment) (*domain.AdjustmentResult, error)
}

// LedgerSvcFacade combines all transaction-related service interfaces
type LedgerSvcFacade interface {
	TransactionWriterSvc
	TransactionReaderSvc
	BalanceWriterSvc
}

// BalanceAdjustmentSvc records direct balance edits as adjustment transactions.
type BalanceAdjustmentSvc interface {
	// AdjustBalance moves the account to nextBalance through a synthesized
	// transaction. Transaction is nil in the result when nothing changed.
	AdjustBalance(ctx context.Context, userID string, accountID string, nextBalance decimal.Decimal) (*domain.AdjustmentResult, error)
}

// LedgerObserver is notified after each committed ledger write.
type LedgerObserver interface {
	OnLedgerWrite(ctx context.Context, result domain.LedgerWriteResult)
}
