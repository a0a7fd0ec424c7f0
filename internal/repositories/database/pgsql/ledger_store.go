package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxLedgerStore runs ledger writes inside a single Postgres transaction and
// serializes writers on the rows they touch with SELECT ... FOR UPDATE.
type PgxLedgerStore struct {
	BaseRepository
}

func newPgxLedgerStore(pool *pgxpool.Pool) *PgxLedgerStore {
	return &PgxLedgerStore{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerStore = (*PgxLedgerStore)(nil)

func (s *PgxLedgerStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := s.Rollback(ctx, tx); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback ledger transaction", slog.String("error", rbErr.Error()))
		}
	}()

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	return s.Commit(ctx, tx)
}

type pgxLedgerTx struct {
	tx pgx.Tx
}

var _ portsrepo.LedgerTx = (*pgxLedgerTx)(nil)

func (t *pgxLedgerTx) LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, t.tx, transactionID, true)
}

// LockAccounts locks in account_id order so concurrent writers touching the
// same pair of accounts cannot deadlock.
func (t *pgxLedgerTx) LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;`

	rows, err := t.tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", translatePgError(err))
	}
	defer rows.Close()

	locked := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		locked[account.AccountID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", translatePgError(err))
	}

	var missing []string
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: could not find or lock accounts %v", apperrors.ErrNotFound, missing)
	}
	return locked, nil
}

func (t *pgxLedgerTx) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	ct, err := t.tx.Exec(ctx, query, accountID, balance, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, translatePgError(err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountID)
	}
	return nil
}

func (t *pgxLedgerTx) InsertTransaction(ctx context.Context, transaction domain.Transaction) error {
	return insertTransaction(ctx, t.tx, transaction)
}

func (t *pgxLedgerTx) UpdateTransaction(ctx context.Context, transaction domain.Transaction) error {
	return updateTransaction(ctx, t.tx, transaction)
}

func (t *pgxLedgerTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	return deleteTransaction(ctx, t.tx, transactionID)
}
