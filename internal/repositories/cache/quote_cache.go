// Package cache holds in-process read-through tiers in front of the database repositories.
package cache

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQuoteCacheSize is used when a non-positive size is configured.
const DefaultQuoteCacheSize = 1024

// QuoteCache keeps recently used dated quotes in memory. Dated quotes never
// change once stored, so entries are never invalidated. The current quote slot
// is passed straight through.
type QuoteCache struct {
	next  portsrepo.RateCacheFacade
	dated *lru.Cache[civil.Date, domain.ExchangeQuote]
}

var _ portsrepo.RateCacheFacade = (*QuoteCache)(nil)

// NewQuoteCache wraps next with an LRU of the given size.
func NewQuoteCache(next portsrepo.RateCacheFacade, size int) (*QuoteCache, error) {
	if size <= 0 {
		size = DefaultQuoteCacheSize
	}
	dated, err := lru.New[civil.Date, domain.ExchangeQuote](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}
	return &QuoteCache{next: next, dated: dated}, nil
}

func (c *QuoteCache) FindQuoteByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	if q, ok := c.dated.Get(date); ok {
		return &q, nil
	}
	q, err := c.next.FindQuoteByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if q != nil {
		c.dated.Add(date, *q)
	}
	return q, nil
}

// SaveQuoteIfAbsent only remembers the quote in memory once the durable store
// accepted it, so both tiers agree on the first writer.
func (c *QuoteCache) SaveQuoteIfAbsent(ctx context.Context, quote domain.ExchangeQuote) (bool, error) {
	if c.dated.Contains(quote.Date) {
		return false, nil
	}
	inserted, err := c.next.SaveQuoteIfAbsent(ctx, quote)
	if err != nil {
		return false, err
	}
	if inserted {
		c.dated.Add(quote.Date, quote)
	}
	return inserted, nil
}

func (c *QuoteCache) FindCurrentQuote(ctx context.Context) (*domain.ExchangeQuote, error) {
	return c.next.FindCurrentQuote(ctx)
}

func (c *QuoteCache) SaveCurrentQuote(ctx context.Context, quote domain.ExchangeQuote) error {
	return c.next.SaveCurrentQuote(ctx, quote)
}

// Len reports how many dated quotes are held in memory.
func (c *QuoteCache) Len() int {
	return c.dated.Len()
}
