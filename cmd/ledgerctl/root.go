package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/multicurrency_ledger/internal/adapters/ratesource"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/core/services"
	"github.com/SscSPs/multicurrency_ledger/internal/platform/config"
	"github.com/SscSPs/multicurrency_ledger/internal/repositories/cache"
	"github.com/SscSPs/multicurrency_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/multicurrency_ledger/migrations"
	"github.com/SscSPs/multicurrency_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// app holds what the subcommands need once the database is reachable.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	repos    portsrepo.RepositoryProvider
	source   portssvc.RateSource
	services *portssvc.ServiceContainer
}

func (a *app) close() {
	if a.pool != nil {
		database.ClosePgxPool(a.pool)
	}
}

func newApp(ctx context.Context, verbose bool) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		return nil, err
	}

	repos := pgsql.NewRepositoryProvider(pool)
	quoteCache, err := cache.NewQuoteCache(repos.RateCache, cfg.RateMemoryCacheSize)
	if err != nil {
		pool.Close()
		return nil, err
	}
	repos.RateCache = quoteCache

	source := ratesource.NewClient(ratesource.Config{
		BaseURL:     cfg.RateProviderBaseURL,
		CurrentPath: cfg.RateProviderCurrentPath,
		HistoryPath: cfg.RateProviderHistoryPath,
		Timeout:     cfg.RateProviderTimeout,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		repos:    repos,
		source:   source,
		services: services.NewServiceContainer(cfg, repos, source),
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		verbose     bool
		skipMigrate bool
		a           *app
	)

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Maintenance commands for the multi-currency ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			if skipMigrate {
				return nil
			}
			return database.RunMigrations(a.cfg.DatabaseURL, migrations.FS, a.logger)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations first")

	current := func() *app { return a }
	rootCmd.AddCommand(newBackfillCmd(current))
	rootCmd.AddCommand(newRatesCmd(current))

	return rootCmd
}
