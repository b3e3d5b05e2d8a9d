package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	App     AppConfig     `yaml:"app"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Market  MarketConfig  `yaml:"market"`
	Pricing PricingConfig `yaml:"pricing"`
	Pairs   []PairConfig  `yaml:"pairs"`
}

// AppConfig application basic configuration
type AppConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"logLevel"` // debug, info, warn, error
	LogFile  string `yaml:"logFile"`
}

// WalletConfig wallet configuration
type WalletConfig struct {
	Address    string `yaml:"address"`    // Wallet address (highest priority)
	AddressEnv string `yaml:"addressEnv"` // Wallet address environment variable name (fallback)
}

// GetAddress gets the wallet address (prioritizes config file, falls back to environment variable)
// An empty address without error means no wallet is connected.
func (c *WalletConfig) GetAddress() (string, error) {
	if c.Address != "" {
		return strings.TrimSpace(c.Address), nil
	}
	if c.AddressEnv != "" {
		addr := os.Getenv(c.AddressEnv)
		if addr == "" {
			return "", fmt.Errorf("environment variable %s is not set", c.AddressEnv)
		}
		return strings.TrimSpace(addr), nil
	}
	return "", nil
}

// MarketConfig refresh cycle configuration
type MarketConfig struct {
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	MaxBackoff      time.Duration `yaml:"maxBackoff"`     // Retry delay cap after failed refreshes
	StaleAfter      time.Duration `yaml:"staleAfter"`     // Snapshot age reported as stale (0 = never)
	HistoryLimit    int           `yaml:"historyLimit"`   // Filled swaps fetched per refresh
	HistoryDisplay  int           `yaml:"historyDisplay"` // Filled swaps kept for display
}

// PricingConfig pricing configuration
type PricingConfig struct {
	DisplayPrecision   int     `yaml:"displayPrecision"`   // Fractional digits of form fields
	PairPricePrecision int     `yaml:"pairPricePrecision"` // Fractional digits of displayed pair prices
	OutlierFactor      float64 `yaml:"outlierFactor"`      // Market price outlier envelope
	DayLocation        string  `yaml:"dayLocation"`        // Time zone of trading days
	LowDeviation       float64 `yaml:"lowDeviation"`       // Price below market / lowDeviation is too low
	HighDeviation      float64 `yaml:"highDeviation"`      // Price above market * highDeviation is too high
}

// Location loads the trading day time zone
func (c *PricingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DayLocation)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing.dayLocation %q: %w", c.DayLocation, err)
	}
	return loc, nil
}

// PairConfig trading pair configuration
type PairConfig struct {
	Name               string  `yaml:"name"`
	BaseToken          string  `yaml:"baseToken"`
	QuoteToken         string  `yaml:"quoteToken"`
	BaseSymbol         string  `yaml:"baseSymbol"`
	QuoteSymbol        string  `yaml:"quoteSymbol"`
	BaseTokenDecimals  int     `yaml:"baseTokenDecimals"`
	QuoteTokenDecimals int     `yaml:"quoteTokenDecimals"`
	MockPrice          float64 `yaml:"mockPrice"`        // Unit price used by the mock source
	MockBaseBalance    string  `yaml:"mockBaseBalance"`  // Wallet base balance in tokens (mock source)
	MockQuoteBalance   string  `yaml:"mockQuoteBalance"` // Wallet quote balance in tokens (mock source)
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	cfg.setDefaults()

	// Environment overrides, .env is optional
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values
func (c *Config) setDefaults() {
	if c.App.Name == "" {
		c.App.Name = "swapbook"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFile == "" {
		c.App.LogFile = "logs/swapbook.log"
	}
	if c.Market.RefreshInterval == 0 {
		c.Market.RefreshInterval = 5 * time.Second
	}
	if c.Market.MaxBackoff == 0 {
		c.Market.MaxBackoff = 2 * time.Minute
	}
	if c.Market.HistoryLimit == 0 {
		c.Market.HistoryLimit = 1500
	}
	if c.Market.HistoryDisplay == 0 {
		c.Market.HistoryDisplay = 250
	}
	if c.Pricing.DisplayPrecision == 0 {
		c.Pricing.DisplayPrecision = 7
	}
	if c.Pricing.PairPricePrecision == 0 {
		c.Pricing.PairPricePrecision = 8
	}
	if c.Pricing.OutlierFactor == 0 {
		c.Pricing.OutlierFactor = 3
	}
	if c.Pricing.DayLocation == "" {
		c.Pricing.DayLocation = "UTC"
	}
	if c.Pricing.LowDeviation == 0 {
		c.Pricing.LowDeviation = 1.5
	}
	if c.Pricing.HighDeviation == 0 {
		c.Pricing.HighDeviation = 1.3
	}
	for i := range c.Pairs {
		if c.Pairs[i].Name == "" {
			c.Pairs[i].Name = c.Pairs[i].BaseToken + "/" + c.Pairs[i].QuoteToken
		}
	}
}

// applyEnvOverrides reads SWAPBOOK_* environment variables
func (c *Config) applyEnvOverrides() {
	setStr(&c.App.LogLevel, "SWAPBOOK_LOG_LEVEL")
	setStr(&c.Wallet.Address, "SWAPBOOK_WALLET_ADDRESS")
	setDuration(&c.Market.RefreshInterval, "SWAPBOOK_REFRESH_INTERVAL")
	setInt(&c.Market.HistoryLimit, "SWAPBOOK_HISTORY_LIMIT")
	setFloat64(&c.Pricing.OutlierFactor, "SWAPBOOK_OUTLIER_FACTOR")
	setStr(&c.Pricing.DayLocation, "SWAPBOOK_DAY_LOCATION")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.Market.RefreshInterval <= 0 {
		return fmt.Errorf("market.refreshInterval must be positive")
	}
	if c.Market.HistoryLimit < 0 || c.Market.HistoryDisplay < 0 {
		return fmt.Errorf("market.historyLimit and market.historyDisplay must not be negative")
	}
	if c.Pricing.DisplayPrecision < 0 || c.Pricing.PairPricePrecision < 0 {
		return fmt.Errorf("pricing precision must not be negative")
	}
	if c.Pricing.OutlierFactor <= 1 {
		return fmt.Errorf("pricing.outlierFactor must be greater than 1")
	}
	if c.Pricing.LowDeviation <= 0 || c.Pricing.HighDeviation <= 0 {
		return fmt.Errorf("pricing deviations must be positive")
	}
	if _, err := c.Pricing.Location(); err != nil {
		return err
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for i, pair := range c.Pairs {
		if pair.BaseToken == "" || pair.QuoteToken == "" {
			return fmt.Errorf("pairs[%d].baseToken and pairs[%d].quoteToken are required", i, i)
		}
		if strings.EqualFold(pair.BaseToken, pair.QuoteToken) {
			return fmt.Errorf("pairs[%d] base and quote token must differ", i)
		}
		if pair.BaseTokenDecimals < 0 || pair.QuoteTokenDecimals < 0 {
			return fmt.Errorf("pairs[%d] decimals must not be negative", i)
		}
	}
	return nil
}

// GetPairConfig gets trading pair configuration by token addresses
func (c *Config) GetPairConfig(tokenA, tokenB string) *PairConfig {
	tokenALower := strings.ToLower(tokenA)
	tokenBLower := strings.ToLower(tokenB)

	for _, pair := range c.Pairs {
		baseLower := strings.ToLower(pair.BaseToken)
		quoteLower := strings.ToLower(pair.QuoteToken)

		// Bidirectional matching
		if (tokenALower == baseLower && tokenBLower == quoteLower) ||
			(tokenALower == quoteLower && tokenBLower == baseLower) {
			return &pair
		}
	}
	return nil
}
