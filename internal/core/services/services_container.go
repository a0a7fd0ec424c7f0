package services

import (
	"time"

	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, source portssvc.RateSource) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	// Rates come first since writes, listings and statistics value amounts through them.
	container.Rates = NewRateResolver(
		repos.RateCache,
		source,
		WithFallbackDays(cfg.RateFallbackDays),
		WithResolverClock(time.Now, loc),
	)
	container.Conversion = NewConversionService(container.Rates)

	container.Category = NewCategoryService(repos.CategoryRepo)
	container.Ledger = NewLedgerService(
		repos.LedgerStore,
		repos.AccountRepo,
		repos.CategoryRepo,
		repos.TransactionRepo,
		WithRateResolver(container.Rates),
		WithConversionService(container.Conversion),
		WithValuationOnWrite(cfg.ValuationOnWrite),
		WithLedgerObserver(NewLoggingObserver()),
		WithLedgerClock(time.Now, loc),
	)
	container.Adjustment = NewBalanceAdjustmentService(repos.AccountRepo, container.Category, container.Ledger, time.Now, loc)
	container.Account = NewAccountService(repos.AccountRepo, WithBalanceAdjustments(container.Adjustment))

	container.Backfill = NewBackfillService(
		repos.TransactionRepo,
		container.Rates,
		WithBatchLimit(cfg.BackfillBatchLimit),
		WithDateDelay(cfg.BackfillDateDelay),
		WithDeferral(cfg.BackfillDeferral),
	)
	container.Statistics = NewStatisticsService(repos.CategoryRepo, repos.TransactionRepo, container.Conversion)

	return container
}
