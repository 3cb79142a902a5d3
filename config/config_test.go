package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Hosts)
	assert.Equal(t, "arxiv-papers", cfg.IndexName)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, 500, cfg.BulkBatchSize)
	assert.Equal(t, []string{"cs."}, cfg.CategoryPrefixes)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvHosts, "http://es1:9200, http://es2:9200")
	t.Setenv(EnvIndexName, "papers-test")
	t.Setenv(EnvEmbeddingDim, "768")
	t.Setenv(EnvBatchSize, "100")
	t.Setenv(EnvRetryDelay, "250ms")
	t.Setenv(EnvCategoryPrefixes, "cs.,stat.")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Hosts)
	assert.Equal(t, "papers-test", cfg.IndexName)
	assert.Equal(t, 768, cfg.EmbeddingDimension)
	assert.Equal(t, 100, cfg.BulkBatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, []string{"cs.", "stat."}, cfg.CategoryPrefixes)
}

func TestFromEnv_BadNumber(t *testing.T) {
	t.Setenv(EnvEmbeddingDim, "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvEmbeddingDim)
}

func TestFromEnv_BadDuration(t *testing.T) {
	t.Setenv(EnvRequestTimeout, "soon")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no hosts", func(c *Config) { c.Hosts = nil }},
		{"host without scheme", func(c *Config) { c.Hosts = []string{"localhost:9200"} }},
		{"empty index", func(c *Config) { c.IndexName = "" }},
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }},
		{"zero dimension", func(c *Config) { c.EmbeddingDimension = 0 }},
		{"zero batch size", func(c *Config) { c.BulkBatchSize = 0 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"username without password", func(c *Config) { c.Username = "elastic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
