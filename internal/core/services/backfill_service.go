package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"golang.org/x/time/rate"
)

const (
	DefaultBackfillLimit     = 10000
	DefaultBackfillDateDelay = 100 * time.Millisecond
	DefaultBackfillDeferral  = 6 * time.Hour
)

type backfillService struct {
	BaseService
	transactionRepo portsrepo.TransactionValuationRepository
	rates           portssvc.RateResolverSvc
	batchLimit      int
	dateDelay       time.Duration
	deferral        time.Duration
	retryDeferred   bool
}

// endOfTime is later than any deferral.
var endOfTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// BackfillOption is a functional option for configuring the backfill job
type BackfillOption func(*backfillService)

// WithBatchLimit sets the default number of rows scanned per run.
func WithBatchLimit(limit int) BackfillOption {
	return func(s *backfillService) {
		if limit > 0 {
			s.batchLimit = limit
		}
	}
}

// WithDateDelay sets the pause between two dates, to spare the rate provider.
func WithDateDelay(d time.Duration) BackfillOption {
	return func(s *backfillService) {
		if d >= 0 {
			s.dateDelay = d
		}
	}
}

// WithDeferral sets how long a date without a quote is left out of later runs.
// Zero retries such dates on every run.
func WithDeferral(d time.Duration) BackfillOption {
	return func(s *backfillService) {
		if d >= 0 {
			s.deferral = d
		}
	}
}

// WithRetryDeferred includes dates that earlier runs deferred.
func WithRetryDeferred() BackfillOption {
	return func(s *backfillService) {
		s.retryDeferred = true
	}
}

// WithBackfillClock overrides the clock used for deferrals.
func WithBackfillClock(now func() time.Time) BackfillOption {
	return func(s *backfillService) {
		s.SetClock(now, nil)
	}
}

// NewBackfillService creates the valuation backfill job.
func NewBackfillService(transactionRepo portsrepo.TransactionValuationRepository, rates portssvc.RateResolverSvc, options ...BackfillOption) portssvc.BackfillSvc {
	s := &backfillService{
		BaseService:     newBaseService(),
		transactionRepo: transactionRepo,
		rates:           rates,
		batchLimit:      DefaultBackfillLimit,
		dateDelay:       DefaultBackfillDateDelay,
		deferral:        DefaultBackfillDeferral,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

var _ portssvc.BackfillSvc = (*backfillService)(nil)

type dateGroup struct {
	date civil.Date
	rows []domain.Transaction
}

// groupByDate keeps the (date, id) order of rows.
func groupByDate(rows []domain.Transaction) []dateGroup {
	var groups []dateGroup
	for _, row := range rows {
		if n := len(groups); n > 0 && groups[n-1].date == row.Date {
			groups[n-1].rows = append(groups[n-1].rows, row)
			continue
		}
		groups = append(groups, dateGroup{date: row.Date, rows: []domain.Transaction{row}})
	}
	return groups
}

func (s *backfillService) RunBackfill(ctx context.Context, limit int) (*domain.BackfillReport, error) {
	if limit <= 0 || limit > s.batchLimit {
		limit = s.batchLimit
	}

	now := s.Now()
	asOf := now
	if s.retryDeferred {
		asOf = endOfTime
	}
	rows, err := s.transactionRepo.FindTransactionsMissingValuation(ctx, asOf, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to select transactions for backfill")
		return nil, fmt.Errorf("failed to select transactions for backfill: %w", err)
	}

	report := &domain.BackfillReport{Scanned: len(rows), SkippedDates: []civil.Date{}}
	if len(rows) == 0 {
		s.LogInfo(ctx, "Backfill found nothing to do")
		return report, nil
	}

	pace := rate.NewLimiter(rate.Inf, 1)
	if s.dateDelay > 0 {
		pace = rate.NewLimiter(rate.Every(s.dateDelay), 1)
	}

	var deferred []civil.Date
	defer func() {
		s.deferDates(ctx, deferred, now)
	}()

	for _, group := range groupByDate(rows) {
		// USD rows never need a quote.
		valuations, foreign := valueUSDRows(group.rows)

		if len(foreign) > 0 {
			if err := pace.Wait(ctx); err != nil {
				s.persist(ctx, group.date, valuations, report)
				return report, err
			}

			quote, err := s.rates.ResolveQuote(ctx, group.date)
			if err != nil || quote == nil {
				attrs := []any{slog.String("date", group.date.String()), slog.Int("transactions", len(foreign))}
				if err != nil {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				s.LogWarn(ctx, "Skipping backfill date without exchange quote", attrs...)
				report.SkippedDates = append(report.SkippedDates, group.date)
				if ctxErr := ctx.Err(); ctxErr != nil {
					return report, ctxErr
				}
				deferred = append(deferred, group.date)
				s.persist(ctx, group.date, valuations, report)
				continue
			}

			for _, row := range foreign {
				v, ok := domain.ValueInUSD(row.Amount, row.Currency, quote)
				if !ok {
					s.LogWarn(ctx, "Quote cannot value transaction currency",
						slog.String("transaction_id", row.TransactionID),
						slog.String("currency", row.Currency.String()))
					continue
				}
				valuations = append(valuations, domain.ValuationFor(row, *v))
			}
		}

		s.persist(ctx, group.date, valuations, report)
	}

	s.LogInfo(ctx, "Backfill finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("updated", report.Updated),
		slog.Int("skipped_dates", len(report.SkippedDates)))
	return report, nil
}

func valueUSDRows(rows []domain.Transaction) (valuations []domain.TransactionValuation, foreign []domain.Transaction) {
	for _, row := range rows {
		if row.Currency != domain.USD {
			foreign = append(foreign, row)
			continue
		}
		v, _ := domain.ValueInUSD(row.Amount, row.Currency, nil)
		valuations = append(valuations, domain.ValuationFor(row, *v))
	}
	return valuations, foreign
}

// persist writes one date's valuations. A failed write reports the date as skipped.
func (s *backfillService) persist(ctx context.Context, date civil.Date, valuations []domain.TransactionValuation, report *domain.BackfillReport) {
	if len(valuations) == 0 {
		return
	}
	n, err := s.transactionRepo.UpdateTransactionValuations(ctx, valuations)
	if err != nil {
		s.LogError(ctx, err, "Failed to persist backfilled valuations", slog.String("date", date.String()))
		if len(report.SkippedDates) == 0 || report.SkippedDates[len(report.SkippedDates)-1] != date {
			report.SkippedDates = append(report.SkippedDates, date)
		}
		return
	}
	if n < len(valuations) {
		s.LogDebug(ctx, "Some rows changed since selection and were left for the next run",
			slog.String("date", date.String()), slog.Int("stale", len(valuations)-n))
	}
	report.Updated += n
}

func (s *backfillService) deferDates(ctx context.Context, dates []civil.Date, now time.Time) {
	if len(dates) == 0 || s.deferral <= 0 {
		return
	}
	// The run's ctx may already be done.
	ctx = context.WithoutCancel(ctx)
	if err := s.transactionRepo.DeferValuationDates(ctx, dates, now.Add(s.deferral)); err != nil {
		s.LogError(ctx, err, "Failed to defer backfill dates", slog.Int("dates", len(dates)))
	}
}
