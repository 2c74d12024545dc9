// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the bot uses) and the
// loader that populates it in three layers:
//   1) compiled-in defaults
//   2) an optional YAML file (-config flag)
//   3) environment variable overrides (hydrated from .env by loadBotEnv)
//
// loadConfig returns an error instead of exiting; main decides whether a bad
// configuration is fatal. That keeps the loader usable from tests.

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime knobs for trading and operations.
type Config struct {
	// Trading target
	Asset string `yaml:"asset"` // e.g., "BTC-USDT"

	// Momentum signal
	PriceResolutionMinutes        int     `yaml:"priceResolutionMinutes"`        // polling cadence
	MomentumLookbackWindowMinutes int     `yaml:"momentumLookbackWindowMinutes"` // baseline window for momentum
	MomentumHistoryWindowMinutes  int     `yaml:"momentumHistoryWindowMinutes"`  // 0 = 2 × lookback
	MomentumStdThreshold          float64 `yaml:"momentumStdThreshold"`          // extreme band width in stddevs

	// Order placement & sizing
	PriceMovementThreshold float64 `yaml:"priceMovementThreshold"` // resting-order distance from last price
	PriceAdjustmentOffset  float64 `yaml:"priceAdjustmentOffset"`  // clamp offset from current price
	OrderSizeFactor        float64 `yaml:"orderSizeFactor"`        // start size = factor × exchange minimum
	MaxOrderSizeMultiplier float64 `yaml:"maxOrderSizeMultiplier"` // ratchet ceiling as multiple of start size
	MakerFeeRate           float64 `yaml:"makerFeeRate"`
	TakerFeeRate           float64 `yaml:"takerFeeRate"`

	// Safety
	PriceValidationThreshold float64 `yaml:"priceValidationThreshold"` // max relative deviation from last price
	RetryDelaySeconds        int     `yaml:"retryDelaySeconds"`        // short delay after fetch/validation failure

	// Ops
	Port     int    `yaml:"port"`     // /metrics and /healthz
	DataDir  string `yaml:"dataDir"`  // app log, price/order CSVs, runtime state
	Gateway  string `yaml:"gateway"`  // "okx" or "paper"
	LogLevel string `yaml:"logLevel"` // debug, info, warn, error

	// Paper gateway seeding (ignored by the OKX gateway)
	PaperStartPrice   float64 `yaml:"paperStartPrice"`
	PaperBaseBalance  float64 `yaml:"paperBaseBalance"`
	PaperQuoteBalance float64 `yaml:"paperQuoteBalance"`

	Exchange ExchangeConfig `yaml:"exchange"`
}

// ExchangeConfig holds the REST transport knobs for the OKX gateway.
type ExchangeConfig struct {
	BaseURL                string  `yaml:"baseURL"`
	APIPrefix              string  `yaml:"apiPrefix"`
	RequestTimeoutSeconds  int     `yaml:"requestTimeoutSeconds"`
	MaxRetries             int     `yaml:"maxRetries"`
	BackoffFactor          float64 `yaml:"backoffFactor"`
	InitialBanSleepSeconds int     `yaml:"initialBanSleepSeconds"`
}

func defaultConfig() Config {
	return Config{
		Asset: "BTC-USDT",

		PriceResolutionMinutes:        1,
		MomentumLookbackWindowMinutes: 30,
		MomentumHistoryWindowMinutes:  0, // derived below
		MomentumStdThreshold:          1.0,

		PriceMovementThreshold: 0.01,
		PriceAdjustmentOffset:  0.001,
		OrderSizeFactor:        65,
		MaxOrderSizeMultiplier: 6,
		MakerFeeRate:           0.0008,
		TakerFeeRate:           0.001,

		PriceValidationThreshold: 1.2,
		RetryDelaySeconds:        10,

		Port:     8080,
		DataDir:  "data",
		Gateway:  "paper",
		LogLevel: "info",

		PaperStartPrice:   0,
		PaperBaseBalance:  0,
		PaperQuoteBalance: 0,

		Exchange: ExchangeConfig{
			BaseURL:                "https://www.okx.com",
			APIPrefix:              "/api/v5",
			RequestTimeoutSeconds:  10,
			MaxRetries:             5,
			BackoffFactor:          0.5,
			InitialBanSleepSeconds: 60,
		},
	}
}

// loadConfig builds the effective Config: defaults, then the optional YAML
// file at path, then env overrides, then validation.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, errors.Wrapf(err, "read config %s", path)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.MomentumHistoryWindowMinutes <= 0 {
		cfg.MomentumHistoryWindowMinutes = 2 * cfg.MomentumLookbackWindowMinutes
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Asset = getEnv("ASSET", cfg.Asset)

	cfg.PriceResolutionMinutes = getEnvInt("PRICE_RESOLUTION_MINUTES", cfg.PriceResolutionMinutes)
	cfg.MomentumLookbackWindowMinutes = getEnvInt("MOMENTUM_LOOKBACK_WINDOW_MINUTES", cfg.MomentumLookbackWindowMinutes)
	cfg.MomentumHistoryWindowMinutes = getEnvInt("MOMENTUM_HISTORY_WINDOW_MINUTES", cfg.MomentumHistoryWindowMinutes)
	cfg.MomentumStdThreshold = getEnvFloat("MOMENTUM_STD_THRESHOLD", cfg.MomentumStdThreshold)

	cfg.PriceMovementThreshold = getEnvFloat("PRICE_MOVEMENT_THRESHOLD", cfg.PriceMovementThreshold)
	cfg.PriceAdjustmentOffset = getEnvFloat("PRICE_ADJUSTMENT_OFFSET", cfg.PriceAdjustmentOffset)
	cfg.OrderSizeFactor = getEnvFloat("ORDER_SIZE_FACTOR", cfg.OrderSizeFactor)
	cfg.MaxOrderSizeMultiplier = getEnvFloat("MAX_ORDER_SIZE_MULTIPLIER", cfg.MaxOrderSizeMultiplier)
	cfg.MakerFeeRate = getEnvFloat("MAKER_FEE_RATE", cfg.MakerFeeRate)
	cfg.TakerFeeRate = getEnvFloat("TAKER_FEE_RATE", cfg.TakerFeeRate)

	cfg.PriceValidationThreshold = getEnvFloat("PRICE_VALIDATION_THRESHOLD", cfg.PriceValidationThreshold)
	cfg.RetryDelaySeconds = getEnvInt("RETRY_DELAY_SECONDS", cfg.RetryDelaySeconds)

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.Gateway = getEnv("GATEWAY", cfg.Gateway)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.PaperStartPrice = getEnvFloat("PAPER_START_PRICE", cfg.PaperStartPrice)
	cfg.PaperBaseBalance = getEnvFloat("PAPER_BASE_BALANCE", cfg.PaperBaseBalance)
	cfg.PaperQuoteBalance = getEnvFloat("PAPER_QUOTE_BALANCE", cfg.PaperQuoteBalance)

	cfg.Exchange.BaseURL = getEnv("OKX_BASE_URL", cfg.Exchange.BaseURL)
	cfg.Exchange.APIPrefix = getEnv("OKX_API_PREFIX", cfg.Exchange.APIPrefix)
	cfg.Exchange.RequestTimeoutSeconds = getEnvInt("OKX_REQUEST_TIMEOUT_SECONDS", cfg.Exchange.RequestTimeoutSeconds)
	cfg.Exchange.MaxRetries = getEnvInt("OKX_MAX_RETRIES", cfg.Exchange.MaxRetries)
	cfg.Exchange.BackoffFactor = getEnvFloat("OKX_BACKOFF_FACTOR", cfg.Exchange.BackoffFactor)
	cfg.Exchange.InitialBanSleepSeconds = getEnvInt("OKX_INITIAL_BAN_SLEEP_SECONDS", cfg.Exchange.InitialBanSleepSeconds)
}

// Validate rejects configurations the loop cannot run with.
func (c *Config) Validate() error {
	if c.Asset == "" {
		return errors.New("config: asset must be set")
	}
	if c.PriceResolutionMinutes <= 0 {
		return errors.Errorf("config: priceResolutionMinutes must be > 0, got %d", c.PriceResolutionMinutes)
	}
	if c.MomentumLookbackWindowMinutes <= 0 {
		return errors.Errorf("config: momentumLookbackWindowMinutes must be > 0, got %d", c.MomentumLookbackWindowMinutes)
	}
	if c.MomentumHistoryWindowMinutes <= 0 {
		return errors.Errorf("config: momentumHistoryWindowMinutes must be > 0, got %d", c.MomentumHistoryWindowMinutes)
	}
	if c.MomentumStdThreshold <= 0 {
		return errors.Errorf("config: momentumStdThreshold must be > 0, got %g", c.MomentumStdThreshold)
	}
	if c.PriceMovementThreshold <= 0 || c.PriceMovementThreshold >= 1 {
		return errors.Errorf("config: priceMovementThreshold must be in (0,1), got %g", c.PriceMovementThreshold)
	}
	if c.PriceAdjustmentOffset < 0 {
		return errors.Errorf("config: priceAdjustmentOffset must be >= 0, got %g", c.PriceAdjustmentOffset)
	}
	if c.OrderSizeFactor <= 0 {
		return errors.Errorf("config: orderSizeFactor must be > 0, got %g", c.OrderSizeFactor)
	}
	if c.MaxOrderSizeMultiplier < 1 {
		return errors.Errorf("config: maxOrderSizeMultiplier must be >= 1, got %g", c.MaxOrderSizeMultiplier)
	}
	if c.MakerFeeRate < 0 || c.TakerFeeRate < 0 {
		return errors.New("config: fee rates must be >= 0")
	}
	if c.PriceValidationThreshold <= 0 {
		return errors.Errorf("config: priceValidationThreshold must be > 0, got %g", c.PriceValidationThreshold)
	}
	if c.RetryDelaySeconds <= 0 {
		return errors.Errorf("config: retryDelaySeconds must be > 0, got %d", c.RetryDelaySeconds)
	}
	switch c.Gateway {
	case "okx", "paper":
	default:
		return errors.Errorf("config: gateway must be \"okx\" or \"paper\", got %q", c.Gateway)
	}
	return nil
}
