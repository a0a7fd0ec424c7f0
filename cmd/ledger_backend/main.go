package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/SscSPs/multicurrency_ledger/internal/adapters/ratesource"
	"github.com/SscSPs/multicurrency_ledger/internal/core/services"
	"github.com/SscSPs/multicurrency_ledger/internal/handlers"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/SscSPs/multicurrency_ledger/internal/platform/config"
	"github.com/SscSPs/multicurrency_ledger/internal/repositories/cache"
	"github.com/SscSPs/multicurrency_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/multicurrency_ledger/migrations"
	"github.com/SscSPs/multicurrency_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title Multi-currency Ledger API
// @version 1.0
// @description Personal ledger with per-account balances, USD valuation and exchange quote resolution.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, migrations.FS, logger); err != nil {
		logger.Error("Database migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	quoteCache, err := cache.NewQuoteCache(repos.RateCache, cfg.RateMemoryCacheSize)
	if err != nil {
		logger.Error("Failed to create quote cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	repos.RateCache = quoteCache

	rateSource := ratesource.NewClient(ratesource.Config{
		BaseURL:     cfg.RateProviderBaseURL,
		CurrentPath: cfg.RateProviderCurrentPath,
		HistoryPath: cfg.RateProviderHistoryPath,
		Timeout:     cfg.RateProviderTimeout,
	})
	serviceContainer := services.NewServiceContainer(cfg, repos, rateSource)

	apiLimiter, err := middleware.NewMemoryLimiter(cfg.APIRateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	r.Use(cors.New(corsConfig))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, apiLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("rate_provider", rateSource.Name()))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
