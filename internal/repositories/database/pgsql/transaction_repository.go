package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/multicurrency_ledger/internal/models"
	"github.com/SscSPs/multicurrency_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, owner_id, account_id, category_id, transaction_date, description, amount,
	transaction_type, currency, amount_usd, exchange_rate_used, created_at, created_by, last_updated_at, last_updated_by`

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.OwnerID,
		&m.AccountID,
		&m.CategoryID,
		&m.TransactionDate,
		&m.Description,
		&m.Amount,
		&m.TransactionType,
		&m.Currency,
		&m.AmountUSD,
		&m.ExchangeRateUsed,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	return mapping.ToDomainTransaction(m), nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func findTransaction(ctx context.Context, q querier, transactionID string, forUpdate bool) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t, err := scanTransaction(q.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction not found: " + transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, translatePgError(err))
	}
	return &t, nil
}

// FindTransactionByID retrieves a transaction without locking it.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return findTransaction(ctx, r.Pool, transactionID, false)
}

// ListTransactionsByAccount pages through an account's transactions newest first.
func (r *PgxTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, cursor *portsrepo.TransactionCursor) ([]domain.Transaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor == nil {
		query := `SELECT ` + transactionColumns + `
			FROM transactions
			WHERE account_id = $1
			ORDER BY transaction_date DESC, transaction_id DESC
			LIMIT $2;`
		rows, err = r.Pool.Query(ctx, query, accountID, limit)
	} else {
		query := `SELECT ` + transactionColumns + `
			FROM transactions
			WHERE account_id = $1 AND (transaction_date, transaction_id) < ($2, $3)
			ORDER BY transaction_date DESC, transaction_id DESC
			LIMIT $4;`
		rows, err = r.Pool.Query(ctx, query, accountID, domain.DateToTime(cursor.Date), cursor.TransactionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	return collectTransactions(rows)
}

// ListTransactionsByOwner lists an owner's transactions dated within [from, to].
func (r *PgxTransactionRepository) ListTransactionsByOwner(ctx context.Context, ownerID string, from, to civil.Date) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = $1 AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date, transaction_id;`

	rows, err := r.Pool.Query(ctx, query, ownerID, domain.DateToTime(from), domain.DateToTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for owner %s: %w", ownerID, err)
	}
	return collectTransactions(rows)
}

// FindTransactionsMissingValuation selects rows the backfill still has to value.
func (r *PgxTransactionRepository) FindTransactionsMissingValuation(ctx context.Context, asOf time.Time, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		WHERE (t.amount_usd IS NULL OR t.exchange_rate_used IS NULL)
		  AND NOT EXISTS (
			SELECT 1 FROM valuation_deferrals d
			WHERE d.transaction_date = t.transaction_date AND d.skipped_until > $1
		  )
		ORDER BY t.transaction_date, t.transaction_id
		LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, asOf.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions missing valuation: %w", err)
	}
	return collectTransactions(rows)
}

// DeferValuationDates records dates the backfill gave up on for now.
func (r *PgxTransactionRepository) DeferValuationDates(ctx context.Context, dates []civil.Date, until time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	query := `
		INSERT INTO valuation_deferrals (transaction_date, skipped_until)
		VALUES ($1, $2)
		ON CONFLICT (transaction_date) DO UPDATE
		SET skipped_until = EXCLUDED.skipped_until,
			attempts = valuation_deferrals.attempts + 1;
	`
	batch := &pgx.Batch{}
	for _, d := range dates {
		batch.Queue(query, domain.DateToTime(d), until.UTC())
	}
	if err := r.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to defer valuation dates: %w", translatePgError(err))
	}
	return nil
}

// UpdateTransactionValuations fills in valuations in one database transaction.
// Rows that gained a valuation or were edited in the meantime are left alone.
func (r *PgxTransactionRepository) UpdateTransactionValuations(ctx context.Context, valuations []domain.TransactionValuation) (int, error) {
	if len(valuations) == 0 {
		return 0, nil
	}

	query := `
		UPDATE transactions
		SET amount_usd = $2, exchange_rate_used = $3
		WHERE transaction_id = $1
		  AND (amount_usd IS NULL OR exchange_rate_used IS NULL)
		  AND amount = $4 AND currency = $5 AND transaction_date = $6;
	`

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	batch := &pgx.Batch{}
	for _, v := range valuations {
		batch.Queue(query, v.TransactionID, domain.RoundMoney(v.AmountUSD), v.ExchangeRateUsed,
			v.Amount, v.Currency.String(), domain.DateToTime(v.Date))
	}

	br := tx.SendBatch(ctx, batch)
	updated := 0
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update valuation for transaction %s: %w", valuations[i].TransactionID, err)
			}
			continue
		}
		updated += int(ct.RowsAffected())
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close valuation update batch: %w", err)
	}
	if batchErr != nil {
		return 0, translatePgError(batchErr)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return updated, nil
}

func insertTransaction(ctx context.Context, q querier, t domain.Transaction) error {
	m := mapping.ToModelTransaction(t)
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`

	_, err := q.Exec(ctx, query,
		m.TransactionID,
		m.OwnerID,
		m.AccountID,
		m.CategoryID,
		m.TransactionDate,
		m.Description,
		m.Amount,
		m.TransactionType,
		m.Currency,
		m.AmountUSD,
		m.ExchangeRateUsed,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, translatePgError(err))
	}
	return nil
}

func updateTransaction(ctx context.Context, q querier, t domain.Transaction) error {
	m := mapping.ToModelTransaction(t)
	query := `
		UPDATE transactions
		SET account_id = $2, category_id = $3, transaction_date = $4, description = $5, amount = $6,
			transaction_type = $7, currency = $8, amount_usd = $9, exchange_rate_used = $10,
			last_updated_at = $11, last_updated_by = $12
		WHERE transaction_id = $1;
	`
	ct, err := q.Exec(ctx, query,
		m.TransactionID,
		m.AccountID,
		m.CategoryID,
		m.TransactionDate,
		m.Description,
		m.Amount,
		m.TransactionType,
		m.Currency,
		m.AmountUSD,
		m.ExchangeRateUsed,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", m.TransactionID, translatePgError(err))
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction not found: " + m.TransactionID)
	}
	return nil
}

func deleteTransaction(ctx context.Context, q querier, transactionID string) error {
	ct, err := q.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1;`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, translatePgError(err))
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("transaction not found: " + transactionID)
	}
	return nil
}
