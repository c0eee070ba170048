// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
// It is constructed once at process start and passed into each component's
// constructor; nothing reads environment variables after Load returns.
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Market data provider (enrichment upstream)
	MarketDataBaseURL string
	MarketDataAPIKey  string
	EnrichmentTimeout time.Duration // Upper bound on a single enrichment call

	// Classification engine tuning
	EnrichmentConfidenceThreshold float64       // Below this after pass 1, enrichment runs
	HybridTieMargin               float64       // Class scores within this of the winner mark a hybrid
	ClassificationCacheTTL        time.Duration // valid_until horizon for stored results
	MaxBatchSize                  int           // Hard cap on classify-batch ticker count
	BatchWorkers                  int           // Concurrent classifications within a batch

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration.
// Backups are disabled unless a bucket is configured.
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // Custom endpoint for S3-compatible stores (R2, MinIO); empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Cron expression (with seconds field)
	RetainCount     int    // Backups kept in the bucket before pruning
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ASSETCLASS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8002),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		MarketDataBaseURL: getEnv("MARKET_DATA_BASE_URL", "https://www.alphavantage.co"),
		MarketDataAPIKey:  getEnv("MARKET_DATA_API_KEY", ""),
		EnrichmentTimeout: getEnvAsDuration("ENRICHMENT_TIMEOUT", 10*time.Second),

		EnrichmentConfidenceThreshold: getEnvAsFloat("ENRICHMENT_CONFIDENCE_THRESHOLD", 0.70),
		HybridTieMargin:               getEnvAsFloat("HYBRID_TIE_MARGIN", 0.05),
		ClassificationCacheTTL:        getEnvAsDuration("CLASSIFICATION_CACHE_TTL", 7*24*time.Hour),
		MaxBatchSize:                  getEnvAsInt("MAX_BATCH_SIZE", 100),
		BatchWorkers:                  getEnvAsInt("BATCH_WORKERS", 8),

		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.EnrichmentConfidenceThreshold < 0 || c.EnrichmentConfidenceThreshold > 1 {
		return fmt.Errorf("enrichment confidence threshold must be in [0,1], got %f", c.EnrichmentConfidenceThreshold)
	}
	if c.HybridTieMargin < 0 || c.HybridTieMargin > 1 {
		return fmt.Errorf("hybrid tie margin must be in [0,1], got %f", c.HybridTieMargin)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", c.MaxBatchSize)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers must be positive, got %d", c.BatchWorkers)
	}
	return nil
}

// loadBackupConfig loads backup configuration from environment variables.
// Backups are enabled only when a bucket name is present.
func loadBackupConfig() *BackupConfig {
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	return &BackupConfig{
		Enabled:         bucket != "",
		Bucket:          bucket,
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"), // 3 AM daily
		RetainCount:     getEnvAsInt("BACKUP_RETAIN_COUNT", 14),
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
