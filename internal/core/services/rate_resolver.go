package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"golang.org/x/sync/singleflight"
)

// DefaultFallbackDays bounds the backward walk when a date has no quote.
const DefaultFallbackDays = 7

// DefaultResolveTimeout bounds one shared walk, independent of any caller.
const DefaultResolveTimeout = 30 * time.Second

// rateResolver answers "which quote applies on this date" from the cache,
// then the provider, then the closest earlier date within the fallback window.
type rateResolver struct {
	BaseService
	cache        portsrepo.RateCacheFacade
	source       portssvc.RateSource
	fallbackDays int
	timeout      time.Duration
	group        singleflight.Group
}

// RateResolverOption is a functional option for configuring the rate resolver
type RateResolverOption func(*rateResolver)

// WithFallbackDays sets how many days before the requested date are searched.
func WithFallbackDays(days int) RateResolverOption {
	return func(r *rateResolver) {
		if days >= 0 {
			r.fallbackDays = days
		}
	}
}

// WithResolveTimeout bounds how long a shared walk may run.
func WithResolveTimeout(d time.Duration) RateResolverOption {
	return func(r *rateResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithResolverClock overrides the clock and time zone used for the current quote.
func WithResolverClock(now func() time.Time, loc *time.Location) RateResolverOption {
	return func(r *rateResolver) {
		r.SetClock(now, loc)
	}
}

// NewRateResolver creates a resolver backed by cache and source.
func NewRateResolver(cache portsrepo.RateCacheFacade, source portssvc.RateSource, options ...RateResolverOption) portssvc.RateResolverSvc {
	r := &rateResolver{
		BaseService:  newBaseService(),
		cache:        cache,
		source:       source,
		fallbackDays: DefaultFallbackDays,
		timeout:      DefaultResolveTimeout,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

var _ portssvc.RateResolverSvc = (*rateResolver)(nil)

func (r *rateResolver) ResolveQuote(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	if !date.IsValid() {
		return nil, apperrors.NewValidationError("invalid date " + date.String())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Concurrent requests for the same date share one walk. The walk outlives
	// any single caller; each caller only stops waiting on its own ctx.
	ch := r.group.DoChan(date.String(), func() (any, error) {
		walkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(walkCtx, date)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	quote, _ := res.Val.(*domain.ExchangeQuote)
	if quote == nil {
		return nil, nil
	}
	copied := *quote
	return &copied, nil
}

func (r *rateResolver) resolve(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	if q := r.lookup(ctx, date); q != nil {
		return q, nil
	}

	for i := 0; i <= r.fallbackDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate := date.AddDays(-i)

		if i > 0 {
			if q := r.lookup(ctx, candidate); q != nil {
				return r.remember(ctx, date, *q), nil
			}
		}

		q, err := r.source.FetchByDate(ctx, candidate)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Transient provider failures count as a miss for this day.
			r.LogWarn(ctx, "Rate provider lookup failed",
				slog.String("provider", r.source.Name()),
				slog.String("date", candidate.String()),
				slog.String("error", err.Error()))
			continue
		}
		if q == nil || !q.IsUsable() {
			continue
		}

		found := *q
		found.Date = candidate
		found.SourceDate = candidate
		if found.FetchedAt.IsZero() {
			found.FetchedAt = r.Now()
		}
		stored := r.remember(ctx, candidate, found)
		if candidate != date {
			stored = r.remember(ctx, date, *stored)
			r.LogDebug(ctx, "Resolved exchange quote from an earlier date",
				slog.String("date", date.String()),
				slog.String("source_date", candidate.String()))
		}
		return stored, nil
	}

	r.LogWarn(ctx, "No exchange quote within fallback window",
		slog.String("date", date.String()),
		slog.Int("fallback_days", r.fallbackDays))
	return nil, nil
}

// lookup treats cache errors as misses.
func (r *rateResolver) lookup(ctx context.Context, date civil.Date) *domain.ExchangeQuote {
	q, err := r.cache.FindQuoteByDate(ctx, date)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			r.LogError(ctx, err, "Rate cache lookup failed", slog.String("date", date.String()))
		}
		return nil
	}
	if q == nil || !q.IsUsable() {
		return nil
	}
	return q
}

// remember stores quote under date and returns whichever quote the cache holds
// for that date afterwards, since the first writer wins.
func (r *rateResolver) remember(ctx context.Context, date civil.Date, quote domain.ExchangeQuote) *domain.ExchangeQuote {
	keyed := quote.WithDate(date)
	inserted, err := r.cache.SaveQuoteIfAbsent(ctx, keyed)
	if err != nil {
		r.LogError(ctx, err, "Failed to cache exchange quote", slog.String("date", date.String()))
		return &keyed
	}
	if !inserted {
		if existing := r.lookup(ctx, date); existing != nil {
			return existing
		}
	}
	return &keyed
}

func (r *rateResolver) CurrentQuote(ctx context.Context, forceRefresh bool) (*domain.ExchangeQuote, error) {
	cached, err := r.cache.FindCurrentQuote(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		r.LogError(ctx, err, "Failed to read current quote slot")
		cached = nil
	}

	today := r.Today()
	if !forceRefresh && cached != nil && domain.DateIn(cached.FetchedAt, r.location) == today {
		return cached, nil
	}

	fresh, err := r.source.FetchCurrent(ctx)
	if err != nil || fresh == nil || !fresh.IsUsable() {
		if err != nil {
			r.LogWarn(ctx, "Failed to refresh current quote",
				slog.String("provider", r.source.Name()), slog.String("error", err.Error()))
		}
		if cached != nil {
			// Serve the last known quote rather than nothing.
			return cached, nil
		}
		return nil, nil
	}

	quote := *fresh
	quote.FetchedAt = r.Now()
	if !quote.Date.IsValid() {
		quote.Date = today
	}
	if !quote.SourceDate.IsValid() {
		quote.SourceDate = quote.Date
	}
	if err := r.cache.SaveCurrentQuote(ctx, quote); err != nil {
		r.LogError(ctx, err, "Failed to store current quote")
	}
	// The current quote also seeds the dated cache for its own date.
	r.remember(ctx, quote.SourceDate, quote)
	return &quote, nil
}
