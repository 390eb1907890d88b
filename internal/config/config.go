// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aristath/chainlens/internal/utils"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the cache database (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Aggregation tuning
	AggregateTimeout time.Duration // Overall deadline for one aggregation request
	ProviderTimeout  time.Duration // Per-provider call timeout, nested inside AggregateTimeout

	// TVL correction knobs. Empirically tuned, kept configurable on purpose:
	// the scrape allow-list and the "looks low" floor came out of observed
	// provider drift for major chains, not from first principles.
	ScrapeTVLFloor     float64  // Below this, API TVL triggers a confirmatory scrape
	HighPriorityScrape []string // Entities whose scraped TVL is preferred over API TVL

	// Background job schedules (cron specs, with seconds field)
	SearchRebuildSchedule string
	CacheCleanupSchedule  string
}

// defaultHighPriorityScrape lists entities where the scraped site TVL is
// observed to be fresher than the structured API value.
var defaultHighPriorityScrape = []string{
	"ethereum", "tron", "solana", "bitcoin", "binance", "bsc", "hyperliquid",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve data directory: CHAINLENS_DATA_DIR, else ./data, always absolute
	dataDir := getEnv("CHAINLENS_DATA_DIR", "data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	highPriority := utils.ParseCSV(getEnv("SCRAPE_HIGH_PRIORITY", ""))
	if highPriority == nil {
		highPriority = defaultHighPriorityScrape
	}

	cfg := &Config{
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("PORT", 8080),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		AggregateTimeout:      getEnvAsDuration("AGGREGATE_TIMEOUT", 25*time.Second),
		ProviderTimeout:       getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ScrapeTVLFloor:        getEnvAsFloat("SCRAPE_TVL_FLOOR", 1_000_000),
		HighPriorityScrape:    highPriority,
		SearchRebuildSchedule: getEnv("SEARCH_REBUILD_SCHEDULE", "0 15 * * * *"), // hourly at :15
		CacheCleanupSchedule:  getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 4 * * *"),   // daily at 04:00
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.AggregateTimeout <= 0 {
		return fmt.Errorf("aggregate timeout must be positive, got %s", c.AggregateTimeout)
	}
	if c.ProviderTimeout <= 0 || c.ProviderTimeout > c.AggregateTimeout {
		return fmt.Errorf("provider timeout %s must be positive and within aggregate timeout %s",
			c.ProviderTimeout, c.AggregateTimeout)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
