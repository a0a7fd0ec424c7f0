package repositories

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
)

// QuoteCacheReader reads dated quotes.
type QuoteCacheReader interface {
	// FindQuoteByDate returns the cached quote for date or ErrNotFound.
	FindQuoteByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error)
}

// QuoteCacheWriter writes dated quotes. Dated quotes are immutable.
type QuoteCacheWriter interface {
	// SaveQuoteIfAbsent stores quote under quote.Date unless that date already
	// has a quote. It reports whether the row was inserted.
	SaveQuoteIfAbsent(ctx context.Context, quote domain.ExchangeQuote) (bool, error)
}

// CurrentQuoteSlot is the single-slot cache of the latest "current" quote.
type CurrentQuoteSlot interface {
	// FindCurrentQuote returns the stored current quote or ErrNotFound.
	FindCurrentQuote(ctx context.Context) (*domain.ExchangeQuote, error)

	// SaveCurrentQuote replaces the stored current quote.
	SaveCurrentQuote(ctx context.Context, quote domain.ExchangeQuote) error
}

// RateCacheFacade combines the dated cache and the current slot.
type RateCacheFacade interface {
	QuoteCacheReader
	QuoteCacheWriter
	CurrentQuoteSlot
}
