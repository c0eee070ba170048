package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSETCLASS_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 10*time.Second, cfg.EnrichmentTimeout)
	assert.Equal(t, 0.70, cfg.EnrichmentConfidenceThreshold)
	assert.Equal(t, 0.05, cfg.HybridTieMargin)
	assert.Equal(t, 7*24*time.Hour, cfg.ClassificationCacheTTL)
	assert.Equal(t, 100, cfg.MaxBatchSize)
	assert.Equal(t, 8, cfg.BatchWorkers)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ASSETCLASS_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENRICHMENT_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("HYBRID_TIE_MARGIN", "0.1")
	t.Setenv("CLASSIFICATION_CACHE_TTL", "24h")
	t.Setenv("MAX_BATCH_SIZE", "50")
	t.Setenv("BATCH_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.85, cfg.EnrichmentConfidenceThreshold)
	assert.Equal(t, 0.1, cfg.HybridTieMargin)
	assert.Equal(t, 24*time.Hour, cfg.ClassificationCacheTTL)
	assert.Equal(t, 50, cfg.MaxBatchSize)
	assert.Equal(t, 2, cfg.BatchWorkers)
}

func TestLoadBackupEnabledByBucket(t *testing.T) {
	t.Setenv("ASSETCLASS_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_S3_BUCKET", "assetclass-backups")
	t.Setenv("BACKUP_S3_ENDPOINT", "https://minio.internal:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, "assetclass-backups", cfg.Backup.Bucket)
	assert.Equal(t, "https://minio.internal:9000", cfg.Backup.Endpoint)
	assert.Equal(t, 14, cfg.Backup.RetainCount)
}

func TestValidate(t *testing.T) {
	valid := Config{
		EnrichmentConfidenceThreshold: 0.7,
		HybridTieMargin:               0.05,
		MaxBatchSize:                  100,
		BatchWorkers:                  8,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"threshold above one", func(c *Config) { c.EnrichmentConfidenceThreshold = 1.5 }, true},
		{"negative threshold", func(c *Config) { c.EnrichmentConfidenceThreshold = -0.1 }, true},
		{"margin above one", func(c *Config) { c.HybridTieMargin = 2 }, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"zero workers", func(c *Config) { c.BatchWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	t.Setenv("ASSETCLASS_DATA_DIR", t.TempDir())
	t.Setenv("ENRICHMENT_CONFIDENCE_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}
