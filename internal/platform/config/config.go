package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Bulk import admission control
	ImportMaxRows       int   // reconciliation rows per upload
	DealerImportMaxRows int   // dealer (sub-ledger) rows per upload
	ImportMaxBytes      int64 // upload size ceiling
	ImportProgressBatch int   // emit a progress event every N rows

	// Public approval endpoints
	PublicRateLimit    string // ulule/limiter formatted rate, e.g. "30-M"
	TokenRetentionDays int    // consumed tokens older than this are purged

	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "mutabakat-app")
	viper.SetDefault("IMPORT_MAX_ROWS", 1000)
	viper.SetDefault("DEALER_IMPORT_MAX_ROWS", 5000)
	viper.SetDefault("IMPORT_MAX_BYTES", 5*1024*1024)
	viper.SetDefault("IMPORT_PROGRESS_BATCH", 1)
	viper.SetDefault("PUBLIC_RATE_LIMIT", "30-M")
	viper.SetDefault("TOKEN_RETENTION_DAYS", 90)
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.ImportMaxRows = viper.GetInt("IMPORT_MAX_ROWS")
	cfg.DealerImportMaxRows = viper.GetInt("DEALER_IMPORT_MAX_ROWS")
	cfg.ImportMaxBytes = viper.GetInt64("IMPORT_MAX_BYTES")
	cfg.ImportProgressBatch = viper.GetInt("IMPORT_PROGRESS_BATCH")
	if cfg.ImportProgressBatch < 1 {
		cfg.ImportProgressBatch = 1
	}

	cfg.PublicRateLimit = viper.GetString("PUBLIC_RATE_LIMIT")
	cfg.TokenRetentionDays = viper.GetInt("TOKEN_RETENTION_DAYS")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}
