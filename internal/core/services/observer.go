package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
)

// loggingObserver writes one audit line per committed ledger write.
type loggingObserver struct {
	BaseService
}

// NewLoggingObserver creates an observer that logs committed writes.
func NewLoggingObserver() portssvc.LedgerObserver {
	return &loggingObserver{BaseService: newBaseService()}
}

func (o *loggingObserver) OnLedgerWrite(ctx context.Context, result domain.LedgerWriteResult) {
	attrs := []any{
		slog.String("kind", string(result.Kind)),
		slog.String("transaction_id", result.Transaction.TransactionID),
		slog.String("type", string(result.Transaction.Type)),
		slog.String("amount", result.Transaction.Amount.String()),
	}
	for _, a := range result.Accounts {
		attrs = append(attrs, slog.String("balance."+a.AccountID, a.Balance.String()))
	}
	o.LogDebug(ctx, "Ledger balances changed", attrs...)
}
