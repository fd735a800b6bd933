package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port          string
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool

	// Loyalty backend
	LoyaltyAPIBaseURL string
	LoyaltyAPIKey     string
	LoyaltyProgramID  string

	// POS backend
	POSAPIBaseURL string
	POSAPIKey     string
	POSStoreID    string

	// Points rules
	PointsPerDollar             int64
	MinimumTransactionForPoints decimal.Decimal

	// Queue behaviour
	WorkerCount        int
	PollInterval       time.Duration
	RetryMaxAttempts   int
	RetryBaseDelay     time.Duration
	RetryMultiplier    float64
	HistoricalSyncPace time.Duration
	JobTimeout         time.Duration
	SyncJobTimeout     time.Duration

	// HTTP surface
	AdminAPIKey      string
	WebhookRateLimit string // ulule/limiter format, e.g. "100-M"
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOYALTY_API_BASE_URL", "http://localhost:9090")
	viper.SetDefault("LOYALTY_API_KEY", "")
	viper.SetDefault("LOYALTY_PROGRAM_ID", "")
	viper.SetDefault("POS_API_BASE_URL", "http://localhost:9091")
	viper.SetDefault("POS_API_KEY", "")
	viper.SetDefault("POS_STORE_ID", "")
	viper.SetDefault("POINTS_PER_DOLLAR", 10)
	viper.SetDefault("MINIMUM_TRANSACTION_FOR_POINTS", "1.00")
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("POLL_INTERVAL", "500ms")
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BASE_DELAY", "1s")
	viper.SetDefault("RETRY_MULTIPLIER", 2.0)
	viper.SetDefault("HISTORICAL_SYNC_PACE", "100ms")
	viper.SetDefault("JOB_TIMEOUT", "2m")
	viper.SetDefault("SYNC_JOB_TIMEOUT", "1h")
	viper.SetDefault("ADMIN_API_KEY", "")
	viper.SetDefault("WEBHOOK_RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.LoyaltyAPIBaseURL = viper.GetString("LOYALTY_API_BASE_URL")
	cfg.LoyaltyAPIKey = viper.GetString("LOYALTY_API_KEY")
	cfg.LoyaltyProgramID = viper.GetString("LOYALTY_PROGRAM_ID")

	cfg.POSAPIBaseURL = viper.GetString("POS_API_BASE_URL")
	cfg.POSAPIKey = viper.GetString("POS_API_KEY")
	cfg.POSStoreID = viper.GetString("POS_STORE_ID")

	cfg.PointsPerDollar = viper.GetInt64("POINTS_PER_DOLLAR")
	if cfg.PointsPerDollar <= 0 {
		log.Printf("Warning: Invalid POINTS_PER_DOLLAR (%d). Defaulting to 10.\n", cfg.PointsPerDollar)
		cfg.PointsPerDollar = 10
	}

	minimumStr := viper.GetString("MINIMUM_TRANSACTION_FOR_POINTS")
	minimum, err := decimal.NewFromString(minimumStr)
	if err != nil {
		minimum = decimal.RequireFromString("1.00")
		log.Printf("Warning: Invalid value for MINIMUM_TRANSACTION_FOR_POINTS ('%s'). Defaulting to %s.\n", minimumStr, minimum.String())
	}
	cfg.MinimumTransactionForPoints = minimum

	cfg.WorkerCount = viper.GetInt("WORKER_COUNT")
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}

	cfg.PollInterval = parseDurationOrDefault("POLL_INTERVAL", 500*time.Millisecond)
	cfg.RetryBaseDelay = parseDurationOrDefault("RETRY_BASE_DELAY", time.Second)
	cfg.HistoricalSyncPace = parseDurationOrDefault("HISTORICAL_SYNC_PACE", 100*time.Millisecond)
	cfg.JobTimeout = parseDurationOrDefault("JOB_TIMEOUT", 2*time.Minute)
	cfg.SyncJobTimeout = parseDurationOrDefault("SYNC_JOB_TIMEOUT", time.Hour)

	cfg.RetryMaxAttempts = viper.GetInt("RETRY_MAX_ATTEMPTS")
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 3
	}

	cfg.RetryMultiplier = viper.GetFloat64("RETRY_MULTIPLIER")
	if cfg.RetryMultiplier < 1 {
		log.Printf("Warning: Invalid RETRY_MULTIPLIER (%f). Defaulting to 2.\n", cfg.RetryMultiplier)
		cfg.RetryMultiplier = 2
	}

	cfg.AdminAPIKey = viper.GetString("ADMIN_API_KEY")
	if cfg.AdminAPIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set. The admin API will refuse requests.")
	}

	cfg.WebhookRateLimit = viper.GetString("WEBHOOK_RATE_LIMIT")

	return cfg, nil
}

// Validate checks that configuration required for production operation is present.
func (c *Config) Validate() error {
	if !c.IsProduction {
		return nil
	}
	required := map[string]string{
		"PGSQL_URL":       c.DatabaseURL,
		"LOYALTY_API_KEY": c.LoyaltyAPIKey,
		"POS_API_KEY":     c.POSAPIKey,
		"POS_STORE_ID":    c.POSStoreID,
	}
	missing := make([]string, 0)
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

func parseDurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
