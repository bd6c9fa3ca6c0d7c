package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHORT_CODE_LENGTH", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ENV", "")

	cfg := Load()

	assert.Equal(t, 6, cfg.ShortCodeLength)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, 1, cfg.MinCookingTime)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsS3Storage())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHORT_CODE_LENGTH", "8")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("PAGE_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8, cfg.ShortCodeLength)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.IsDev())
	assert.True(t, cfg.IsS3Storage())
	assert.Equal(t, 6, cfg.PageSize, "invalid ints fall back to the default")
}

func TestIsOIDCEnabled(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected bool
	}{
		{"nothing set", Config{}, false},
		{"issuer only", Config{OIDCIssuer: "https://id.example.com"}, false},
		{"issuer and client", Config{OIDCIssuer: "https://id.example.com", OIDCClientID: "foodgram"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsOIDCEnabled(); got != tt.expected {
				t.Errorf("IsOIDCEnabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadYAMLConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
tags:
  - name: Breakfast
    slug: breakfast
  - name: Dinner
    slug: dinner
ingredients:
  - name: flour
    measurement_unit: g
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadYAMLConfigFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Len(t, cfg.Tags, 2)
	assert.Equal(t, "Dinner", cfg.GetTagBySlug("dinner").Name)
	assert.Nil(t, cfg.GetTagBySlug("lunch"))
	require.Len(t, cfg.Ingredients, 1)
	assert.Equal(t, "g", cfg.Ingredients[0].MeasurementUnit)
}

func TestLoadYAMLConfigFile_Missing(t *testing.T) {
	cfg, err := LoadYAMLConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	var nilCfg *YAMLConfig
	assert.Nil(t, nilCfg.GetTagBySlug("anything"))
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:            "production",
		BaseURL:        "https://foodgram.example",
		StorageBackend: "local",
		TokenSecret:    "0123456789abcdef0123456789abcdef",
		PageSize:       6,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.BaseURL = "foodgram.example" }},
		{"s3 without bucket", func(c *Config) { c.StorageBackend = "s3" }},
		{"unknown backend", func(c *Config) { c.StorageBackend = "ftp" }},
		{"short secret in production", func(c *Config) { c.TokenSecret = "short" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	dev := base
	dev.Env = "development"
	dev.TokenSecret = "short"
	assert.NoError(t, dev.Validate())
}
