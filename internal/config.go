package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Catalog sources
const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

type Config struct {
	Env           string
	LogLevel      string
	Port          uint16
	CatalogSource string
	CatalogFile   string
	DatabaseUrl   string
	CORSOrigins   string
	PriceService  PriceServiceConfig
	Session       SessionConfig
	Cart          CartConfig
	Sentry        SentryConfig
}

// PriceServiceConfig points at the backend that prices and resolves
// configurations.
type PriceServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig tunes configurator sessions.
type SessionConfig struct {
	// SettleWindow is the price debounce interval
	SettleWindow time.Duration

	// TTL is how long an idle session survives. Zero disables expiry.
	TTL time.Duration

	// SweepInterval is how often idle sessions are swept
	SweepInterval time.Duration
}

// CartConfig selects where finished cart lines go. An empty NATSURL logs
// them instead.
type CartConfig struct {
	NATSURL string
	Subject string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return loadConfig()
}

// loadConfig reads the process environment.
func loadConfig() (*Config, error) {
	cfg := &Config{
		Env:           getEnv("ENV", "dev"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnvPort("PORT", 3000),
		CatalogSource: getEnv("CATALOG_SOURCE", CatalogSourceFile),
		CatalogFile:   getEnv("CATALOG_FILE", "catalog.example.yaml"),
		DatabaseUrl:   getEnv("DATABASE_URL", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", ""),
		PriceService: PriceServiceConfig{
			URL:     getEnv("PRICE_SERVICE_URL", "http://localhost:8081/api"),
			Timeout: getEnvMillis("PRICE_SERVICE_TIMEOUT_MS", 5000),
		},
		Session: SessionConfig{
			SettleWindow:  getEnvMillis("PRICE_SETTLE_WINDOW_MS", 400),
			TTL:           time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
			SweepInterval: time.Duration(getEnvInt("SESSION_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		},
		Cart: CartConfig{
			NATSURL: getEnv("NATS_URL", ""),
			Subject: getEnv("CART_SUBJECT", "cart.lines.add"),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	switch cfg.CatalogSource {
	case CatalogSourceFile:
		if cfg.CatalogFile == "" {
			return nil, fmt.Errorf("CATALOG_FILE required when CATALOG_SOURCE=file")
		}
	case CatalogSourcePostgres:
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL required when CATALOG_SOURCE=postgres")
		}
	default:
		return nil, fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogSourceFile, CatalogSourcePostgres, cfg.CatalogSource)
	}

	if cfg.PriceService.URL == "" {
		return nil, fmt.Errorf("PRICE_SERVICE_URL must be set")
	}
	if cfg.Session.SettleWindow <= 0 {
		return nil, fmt.Errorf("PRICE_SETTLE_WINDOW_MS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvPort(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		if port, err := strconv.ParseUint(value, 10, 16); err == nil {
			return uint16(port)
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
