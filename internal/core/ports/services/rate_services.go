package services

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RateSource is the external rate-quote provider.
type RateSource interface {
	// Name identifies the provider in logs.
	Name() string

	// FetchCurrent returns the provider's latest quote.
	FetchCurrent(ctx context.Context) (*domain.ExchangeQuote, error)

	// FetchByDate returns the quote published for date, or nil when the
	// provider has none. Timeouts and 5xx responses are ErrProviderTransient.
	FetchByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error)
}

// RateResolverSvc resolves the quote in effect on a date.
type RateResolverSvc interface {
	// ResolveQuote returns the quote for date, walking back a bounded number of
	// days when needed. It returns nil without an error when no quote exists.
	ResolveQuote(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error)

	// CurrentQuote returns today's quote, fetched at most once per calendar day
	// unless forceRefresh is set.
	CurrentQuote(ctx context.Context, forceRefresh bool) (*domain.ExchangeQuote, error)
}

// ConversionSvc converts amounts to USD.
type ConversionSvc interface {
	// ResolveUSDAmount converts amount at the quote in effect on date.
	// It returns nil when no quote is available.
	ResolveUSDAmount(ctx context.Context, amount decimal.Decimal, currency domain.Currency, date civil.Date) (*decimal.Decimal, error)
}

// BackfillSvc repairs transactions missing a USD valuation.
type BackfillSvc interface {
	RunBackfill(ctx context.Context, limit int) (*domain.BackfillReport, error)
}

// StatisticsSvc aggregates USD totals.
type StatisticsSvc interface {
	// CategoryStatistics totals an owner's transactions per category within
	// [from, to], leaving out adjustment categories.
	CategoryStatistics(ctx context.Context, userID string, from, to civil.Date) (*domain.CategoryStatistics, error)
}
