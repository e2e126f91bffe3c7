package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Translation.Enabled)
	assert.Equal(t, "raw", cfg.Translation.Provider)
	assert.Equal(t, "en", cfg.Translation.BaseLanguage)
	assert.Equal(t, 2000, cfg.Translation.CacheCapacity)
	assert.Equal(t, 128, cfg.Translation.MaxBatchSize)
	assert.Equal(t, 15*time.Second, cfg.Translation.UpstreamTimeout)
	assert.Equal(t, 0, cfg.Translation.MaxRetries)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
translation:
  provider: google
  cache_capacity: 50
  upstream_timeout: 3s
providers:
  google:
    project_id: shop-123
    api_key: secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "google", cfg.Translation.Provider)
	assert.Equal(t, 50, cfg.Translation.CacheCapacity)
	assert.Equal(t, 3*time.Second, cfg.Translation.UpstreamTimeout)
	assert.Equal(t, "shop-123", cfg.Provider().ProjectID)
	assert.Equal(t, "secret", cfg.Provider().APIKey)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("KIOSK_TRANSLATION_ENABLED", "false")
	t.Setenv("KIOSK_PROVIDERS_DEEPL_API_KEY", "env-key")
	t.Setenv("KIOSK_TRANSLATION_PROVIDER", "deepl")

	cfg, err := LoadConfig(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Translation.Enabled)
	assert.Equal(t, "deepl", cfg.Translation.Provider)
	assert.Equal(t, "env-key", cfg.Provider().APIKey)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Translation.CacheCapacity = 0 }},
		{"negative batch", func(c *Config) { c.Translation.MaxBatchSize = -1 }},
		{"zero timeout", func(c *Config) { c.Translation.UpstreamTimeout = 0 }},
		{"negative retries", func(c *Config) { c.Translation.MaxRetries = -2 }},
		{"blank base language", func(c *Config) { c.Translation.BaseLanguage = " " }},
		{"unknown provider", func(c *Config) { c.Translation.Provider = "babelfish" }},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
	}

	require.NoError(t, NewDefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "translation:\n  cache_capacity: -5\n"))
	assert.Error(t, err)
}
