// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	JupiterURL        string            `mapstructure:"jupiter_url"`
	Pairs             []PairConfig      `mapstructure:"pairs"`
	CustomTokens      map[string]string `mapstructure:"custom_tokens"`
	TimeoutMs         int               `mapstructure:"timeout_ms"`
	IncludeAggregator bool              `mapstructure:"include_aggregator"`
	EnableCaching     bool              `mapstructure:"enable_caching"`
	CacheTTLMs        int               `mapstructure:"cache_ttl_ms"`
	MinProfitPercent  float64           `mapstructure:"min_profit_percent"`
	MaxRiskScore      float64           `mapstructure:"max_risk_score"`
	MaxPriceImpact    float64           `mapstructure:"max_price_impact"`
	IncludeGasCosts   bool              `mapstructure:"include_gas_costs"`
	RequireLiquidity  bool              `mapstructure:"require_liquidity"`
	EnableFiltering   bool              `mapstructure:"enable_filtering"`
	Workers           int               `mapstructure:"workers"`
	Retries           int               `mapstructure:"retries"`
	ScanIntervalMs    int               `mapstructure:"scan_interval_ms"`
	OutputDir         string            `mapstructure:"output_dir"`
	DatabaseURL       string            `mapstructure:"database_url"`
	DebugLogging      bool              `mapstructure:"debug_logging"`
}

// PairConfig describes one pair to scan.
type PairConfig struct {
	From   string  `mapstructure:"from"`
	To     string  `mapstructure:"to"`
	Amount float64 `mapstructure:"amount"`
}

const (
	DefaultJupiterURL     = "https://quote-api.jup.ag/v6"
	DefaultTimeoutMs      = 5000
	DefaultCacheTTLMs     = 10000
	DefaultMinProfit      = 0.001
	DefaultMaxRiskScore   = 0.7
	DefaultMaxPriceImpact = 0.02
	DefaultWorkers        = 4
	DefaultRetries        = 3
	DefaultScanIntervalMs = 2000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"jupiter_url":        DefaultJupiterURL,
		"timeout_ms":         DefaultTimeoutMs,
		"include_aggregator": true,
		"enable_caching":     true,
		"cache_ttl_ms":       DefaultCacheTTLMs,
		"min_profit_percent": DefaultMinProfit,
		"max_risk_score":     DefaultMaxRiskScore,
		"max_price_impact":   DefaultMaxPriceImpact,
		"include_gas_costs":  true,
		"enable_filtering":   true,
		"workers":            DefaultWorkers,
		"retries":            DefaultRetries,
		"scan_interval_ms":   DefaultScanIntervalMs,
		"output_dir":         "exports",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.Pairs) == 0 {
		return errors.New("pairs list is empty")
	}
	for _, pair := range cfg.Pairs {
		if pair.From == "" || pair.To == "" {
			return errors.New("pair is missing a symbol")
		}
		if pair.Amount <= 0 {
			return errors.New("pair amount must be positive")
		}
	}
	if cfg.JupiterURL != "" {
		if err := validateURLWithCache(cfg.JupiterURL, "http"); err != nil {
			return errors.New("invalid Jupiter URL protocol")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.TimeoutMs <= 0 {
		return errors.New("invalid timeout_ms")
	}
	if cfg.CacheTTLMs <= 0 {
		return errors.New("invalid cache_ttl_ms")
	}
	if cfg.MinProfitPercent < 0 {
		return errors.New("invalid min_profit_percent")
	}
	if cfg.MaxRiskScore < 0 || cfg.MaxRiskScore > 1 {
		return errors.New("invalid max_risk_score")
	}
	if cfg.MaxPriceImpact < 0 {
		return errors.New("invalid max_price_impact")
	}
	if cfg.Workers < 0 {
		return errors.New("invalid workers count")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.ScanIntervalMs <= 0 {
		return errors.New("invalid scan_interval_ms")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("ARBSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envJupiter := v.GetString("JUPITER_URL")
	if envJupiter != "" {
		cfg.JupiterURL = envJupiter
	}

	envOutput := v.GetString("OUTPUT_DIR")
	if envOutput != "" {
		cfg.OutputDir = envOutput
	}

	envDatabase := v.GetString("DATABASE_URL")
	if envDatabase != "" {
		cfg.DatabaseURL = envDatabase
	}
	return nil
}
