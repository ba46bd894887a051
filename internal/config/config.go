// Package config loads simulator settings from an optional YAML file and
// environment overrides. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/atmx/paper-trader/internal/ledger"
	"github.com/atmx/paper-trader/internal/quote"
)

// Environment variables read by ApplyEnv.
const (
	EnvCash        = "PAPERTRADE_CASH"
	EnvOwner       = "PAPERTRADE_OWNER"
	EnvQuotePolicy = "PAPERTRADE_QUOTE_POLICY"
	EnvPnLPolicy   = "PAPERTRADE_PNL_POLICY"
	EnvLogLevel    = "PAPERTRADE_LOG_LEVEL"
	EnvMetricsFile = "PAPERTRADE_METRICS_FILE"
)

// Config is the complete simulator configuration. Money is kept as strings
// so YAML numbers are parsed exactly by decimal.NewFromString.
type Config struct {
	Account AccountConfig `yaml:"account"`
	Quotes  QuotesConfig  `yaml:"quotes"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AccountConfig sets up the account at start-up.
type AccountConfig struct {
	Owner string `yaml:"owner"`
	Cash  string `yaml:"cash"`
}

// QuotesConfig selects the price table and unknown-symbol policy.
// An empty Prices map selects the built-in table.
type QuotesConfig struct {
	Policy string            `yaml:"policy"`
	Prices map[string]string `yaml:"prices,omitempty"`
}

// LedgerConfig holds ledger accounting options.
type LedgerConfig struct {
	PnLPolicy string `yaml:"pnl_policy"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Account: AccountConfig{Owner: "user", Cash: "10000"},
		Quotes:  QuotesConfig{Policy: quote.Strict.String()},
		Ledger:  LedgerConfig{PnLPolicy: ledger.PnLNet.String()},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Load returns the defaults, overlaid with path (if non-empty) and then
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Account.Cash, EnvCash)
	set(&c.Account.Owner, EnvOwner)
	set(&c.Quotes.Policy, EnvQuotePolicy)
	set(&c.Ledger.PnLPolicy, EnvPnLPolicy)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Metrics.File, EnvMetricsFile)
}

// Validate checks every field that has a parser.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.OpeningCash(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.QuotePolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Prices(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PnLPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", f))
	}
	return errors.Join(errs...)
}

// OpeningCash parses account.cash. Empty means zero.
func (c *Config) OpeningCash() (decimal.Decimal, error) {
	if strings.TrimSpace(c.Account.Cash) == "" {
		return decimal.Zero, nil
	}
	cash, err := decimal.NewFromString(strings.TrimSpace(c.Account.Cash))
	if err != nil {
		return decimal.Zero, fmt.Errorf("account.cash: %w", err)
	}
	if cash.IsNegative() {
		return decimal.Zero, fmt.Errorf("account.cash must not be negative, got %s", cash)
	}
	return cash, nil
}

// QuotePolicy parses quotes.policy.
func (c *Config) QuotePolicy() (quote.Policy, error) {
	return quote.ParsePolicy(c.Quotes.Policy)
}

// Prices parses quotes.prices. A nil map means "use the built-in table".
func (c *Config) Prices() (map[string]decimal.Decimal, error) {
	if len(c.Quotes.Prices) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(c.Quotes.Prices))
	for sym, raw := range c.Quotes.Prices {
		p, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("quotes.prices.%s: %w", sym, err)
		}
		out[sym] = p
	}
	return out, nil
}

// PnLPolicy parses ledger.pnl_policy.
func (c *Config) PnLPolicy() (ledger.PnLPolicy, error) {
	return ledger.ParsePnLPolicy(c.Ledger.PnLPolicy)
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
