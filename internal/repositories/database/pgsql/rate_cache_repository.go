package pgsql

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/multicurrency_ledger/internal/models"
	"github.com/SscSPs/multicurrency_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quoteColumns = `quote_date, ves_per_usd, ves_per_eur, source_date, fetched_at`

// PgxRateCacheRepository is the durable exchange quote cache.
type PgxRateCacheRepository struct {
	BaseRepository
}

func newPgxRateCacheRepository(pool *pgxpool.Pool) *PgxRateCacheRepository {
	return &PgxRateCacheRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RateCacheFacade = (*PgxRateCacheRepository)(nil)

func scanQuote(row rowScanner) (domain.ExchangeQuote, error) {
	var m models.ExchangeQuote
	if err := row.Scan(&m.QuoteDate, &m.VESPerUSD, &m.VESPerEUR, &m.SourceDate, &m.FetchedAt); err != nil {
		return domain.ExchangeQuote{}, err
	}
	return mapping.ToDomainExchangeQuote(m), nil
}

func (r *PgxRateCacheRepository) FindQuoteByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	query := `SELECT ` + quoteColumns + ` FROM exchange_quotes WHERE quote_date = $1;`
	quote, err := scanQuote(r.Pool.QueryRow(ctx, query, domain.DateToTime(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no cached quote for " + date.String())
		}
		return nil, fmt.Errorf("failed to read cached quote for %s: %w", date, err)
	}
	return &quote, nil
}

// SaveQuoteIfAbsent inserts the quote unless its date is already cached.
func (r *PgxRateCacheRepository) SaveQuoteIfAbsent(ctx context.Context, quote domain.ExchangeQuote) (bool, error) {
	m := mapping.ToModelExchangeQuote(quote)
	query := `INSERT INTO exchange_quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (quote_date) DO NOTHING;`

	ct, err := r.Pool.Exec(ctx, query, m.QuoteDate, m.VESPerUSD, m.VESPerEUR, m.SourceDate, m.FetchedAt)
	if err != nil {
		return false, fmt.Errorf("failed to cache quote for %s: %w", quote.Date, err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PgxRateCacheRepository) FindCurrentQuote(ctx context.Context) (*domain.ExchangeQuote, error) {
	query := `SELECT ` + quoteColumns + ` FROM current_exchange_quote WHERE slot = 1;`
	quote, err := scanQuote(r.Pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no current quote stored")
		}
		return nil, fmt.Errorf("failed to read current quote: %w", err)
	}
	return &quote, nil
}

func (r *PgxRateCacheRepository) SaveCurrentQuote(ctx context.Context, quote domain.ExchangeQuote) error {
	m := mapping.ToModelExchangeQuote(quote)
	query := `
		INSERT INTO current_exchange_quote (slot, ` + quoteColumns + `)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (slot) DO UPDATE
		SET quote_date = EXCLUDED.quote_date,
			ves_per_usd = EXCLUDED.ves_per_usd,
			ves_per_eur = EXCLUDED.ves_per_eur,
			source_date = EXCLUDED.source_date,
			fetched_at = EXCLUDED.fetched_at;
	`
	if _, err := r.Pool.Exec(ctx, query, m.QuoteDate, m.VESPerUSD, m.VESPerEUR, m.SourceDate, m.FetchedAt); err != nil {
		return fmt.Errorf("failed to store current quote: %w", err)
	}
	return nil
}
