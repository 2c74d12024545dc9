// FILE: config_test.go

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "BTC-USDT", cfg.Asset)
	assert.Equal(t, 1, cfg.PriceResolutionMinutes)
	assert.Equal(t, 30, cfg.MomentumLookbackWindowMinutes)
	// Unset history window derives from the lookback.
	assert.Equal(t, 60, cfg.MomentumHistoryWindowMinutes)
	assert.Equal(t, 0.01, cfg.PriceMovementThreshold)
	assert.Equal(t, "paper", cfg.Gateway)
	assert.Equal(t, "https://www.okx.com", cfg.Exchange.BaseURL)
}

func TestLoadConfigYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	doc := `
asset: ETH-USDT
momentumLookbackWindowMinutes: 10
priceMovementThreshold: 0.02
gateway: okx
exchange:
  requestTimeoutSeconds: 5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ETH-USDT", cfg.Asset)
	assert.Equal(t, 10, cfg.MomentumLookbackWindowMinutes)
	assert.Equal(t, 20, cfg.MomentumHistoryWindowMinutes)
	assert.Equal(t, 0.02, cfg.PriceMovementThreshold)
	assert.Equal(t, "okx", cfg.Gateway)
	assert.Equal(t, 5, cfg.Exchange.RequestTimeoutSeconds)
	// Untouched fields keep their defaults.
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://www.okx.com", cfg.Exchange.BaseURL)
}

func TestLoadConfigEnvWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("asset: ETH-USDT\nport: 9000\n"), 0o644))

	t.Setenv("ASSET", "SOL-USDT")
	t.Setenv("ORDER_SIZE_FACTOR", "10")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "SOL-USDT", cfg.Asset)
	assert.Equal(t, 10.0, cfg.OrderSizeFactor)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", cfg.Asset)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty asset", func(c *Config) { c.Asset = "" }},
		{"zero resolution", func(c *Config) { c.PriceResolutionMinutes = 0 }},
		{"zero lookback", func(c *Config) { c.MomentumLookbackWindowMinutes = 0 }},
		{"zero std threshold", func(c *Config) { c.MomentumStdThreshold = 0 }},
		{"movement threshold too large", func(c *Config) { c.PriceMovementThreshold = 1.5 }},
		{"negative offset", func(c *Config) { c.PriceAdjustmentOffset = -0.1 }},
		{"zero size factor", func(c *Config) { c.OrderSizeFactor = 0 }},
		{"multiplier below one", func(c *Config) { c.MaxOrderSizeMultiplier = 0.5 }},
		{"negative fee", func(c *Config) { c.MakerFeeRate = -1 }},
		{"zero validation threshold", func(c *Config) { c.PriceValidationThreshold = 0 }},
		{"zero retry delay", func(c *Config) { c.RetryDelaySeconds = 0 }},
		{"unknown gateway", func(c *Config) { c.Gateway = "binance" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.MomentumHistoryWindowMinutes = 60
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "  hello ")
	t.Setenv("X_INT", "42")
	t.Setenv("X_FLOAT", "1.5")
	t.Setenv("X_BAD", "nope")

	assert.Equal(t, "hello", getEnv("X_STR", "d"))
	assert.Equal(t, "d", getEnv("X_MISSING", "d"))
	assert.Equal(t, 42, getEnvInt("X_INT", 0))
	assert.Equal(t, 7, getEnvInt("X_BAD", 7))
	assert.Equal(t, 1.5, getEnvFloat("X_FLOAT", 0))
	assert.Equal(t, 2.5, getEnvFloat("X_BAD", 2.5))
}
