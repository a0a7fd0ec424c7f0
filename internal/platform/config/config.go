package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	JWTSecret          string
	CORSAllowedOrigins []string
	APIRateLimit       string // ulule/limiter format, e.g. "300-M"

	// Rate provider
	RateProviderBaseURL     string
	RateProviderCurrentPath string
	RateProviderHistoryPath string
	RateProviderTimeout     time.Duration
	RateFallbackDays        int
	RateMemoryCacheSize     int

	// Ledger
	ValuationOnWrite   bool
	BackfillBatchLimit int
	BackfillDateDelay  time.Duration
	BackfillDeferral   time.Duration // how long a date without a quote waits before the next attempt
	TimeZone           string
	Location           *time.Location
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", true)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("API_RATE_LIMIT", "300-M")
	viper.SetDefault("RATE_PROVIDER_BASE_URL", "")
	viper.SetDefault("RATE_PROVIDER_CURRENT_PATH", "/api/rates/current")
	viper.SetDefault("RATE_PROVIDER_HISTORY_PATH", "/api/rates/history")
	viper.SetDefault("RATE_PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("RATE_FALLBACK_DAYS", 7)
	viper.SetDefault("RATE_MEMORY_CACHE_SIZE", 1024)
	viper.SetDefault("VALUATION_ON_WRITE", true)
	viper.SetDefault("BACKFILL_BATCH_LIMIT", 10000)
	viper.SetDefault("BACKFILL_DATE_DELAY", "100ms")
	viper.SetDefault("BACKFILL_DEFERRAL", "6h")
	viper.SetDefault("LEDGER_TIMEZONE", "UTC")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.APIRateLimit = viper.GetString("API_RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.RateProviderBaseURL = strings.TrimRight(viper.GetString("RATE_PROVIDER_BASE_URL"), "/")
	if cfg.RateProviderBaseURL == "" {
		log.Println("Warning: RATE_PROVIDER_BASE_URL not set. Only cached exchange quotes will be available.")
	}
	cfg.RateProviderCurrentPath = viper.GetString("RATE_PROVIDER_CURRENT_PATH")
	cfg.RateProviderHistoryPath = viper.GetString("RATE_PROVIDER_HISTORY_PATH")
	cfg.RateProviderTimeout = durationOrDefault("RATE_PROVIDER_TIMEOUT", 10*time.Second)

	cfg.RateFallbackDays = viper.GetInt("RATE_FALLBACK_DAYS")
	if cfg.RateFallbackDays < 0 {
		log.Printf("Warning: RATE_FALLBACK_DAYS must not be negative. Defaulting to 7.\n")
		cfg.RateFallbackDays = 7
	}
	cfg.RateMemoryCacheSize = viper.GetInt("RATE_MEMORY_CACHE_SIZE")

	cfg.ValuationOnWrite = viper.GetBool("VALUATION_ON_WRITE")
	cfg.BackfillBatchLimit = viper.GetInt("BACKFILL_BATCH_LIMIT")
	if cfg.BackfillBatchLimit <= 0 {
		log.Printf("Warning: Invalid BACKFILL_BATCH_LIMIT. Defaulting to 10000.\n")
		cfg.BackfillBatchLimit = 10000
	}
	cfg.BackfillDateDelay = durationOrDefault("BACKFILL_DATE_DELAY", 100*time.Millisecond)
	cfg.BackfillDeferral = durationOrDefault("BACKFILL_DEFERRAL", 6*time.Hour)

	cfg.TimeZone = viper.GetString("LEDGER_TIMEZONE")
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("Warning: Invalid LEDGER_TIMEZONE ('%s'). Defaulting to UTC.\n", cfg.TimeZone)
		loc = time.UTC
		cfg.TimeZone = "UTC"
	}
	cfg.Location = loc

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
