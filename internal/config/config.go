// Package config loads and validates service configuration from a YAML
// file via viper. Each section carries its own Validate, and optional
// sections (postgres, redis) are skipped when left empty.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/viper"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Config is the root service configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Poller   PollerConfig   `mapstructure:"poller"`

	// Pledges seeds the set of tracked pledge addresses at startup.
	Pledges []string `mapstructure:"pledges"`
}

// Validate checks every section and the seed addresses.
func (cfg *Config) Validate() error {
	if err := cfg.HTTP.Validate(); err != nil {
		return err
	}
	if err := cfg.Ledger.Validate(); err != nil {
		return err
	}
	if err := cfg.Postgres.Validate(); err != nil {
		return err
	}
	if err := cfg.Poller.Validate(); err != nil {
		return err
	}
	for _, addr := range cfg.Pledges {
		if !addressRe.MatchString(addr) {
			return fmt.Errorf("invalid pledge address %q", addr)
		}
	}
	return nil
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

func (cfg *HTTPConfig) Validate() error {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return nil
}

// LedgerConfig configures the read-only gateway to the remote
// equity/vault contract.
type LedgerConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	Concurrency   int           `mapstructure:"concurrency"`
}

func (cfg *LedgerConfig) Validate() error {
	if cfg.Endpoint == "" {
		return errors.New("ledger gateway endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return nil
}

// PostgresConfig configures the snapshot store. An empty URL selects
// the in-memory store (development only; nothing persists).
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

func (cfg *PostgresConfig) Validate() error {
	return nil
}

// Enabled reports whether a Postgres store is configured.
func (cfg *PostgresConfig) Enabled() bool {
	return cfg.URL != ""
}

// RedisConfig configures the optional read-through snapshot cache.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether the Redis cache is configured.
func (cfg *RedisConfig) Enabled() bool {
	return cfg.URL != ""
}

// CacheTTL returns the configured TTL or the 30s default.
func (cfg *RedisConfig) CacheTTL() time.Duration {
	if cfg.TTL <= 0 {
		return 30 * time.Second
	}
	return cfg.TTL
}

// PollerConfig configures the snapshot refresh loop and the cosmetic
// yield ticker cadence.
type PollerConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	TickerInterval  time.Duration `mapstructure:"ticker-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.TickerInterval <= 0 {
		cfg.TickerInterval = time.Second
	}
	if cfg.TickerInterval >= cfg.RefreshInterval {
		return errors.New("ticker-interval must be shorter than refresh-interval")
	}
	return nil
}

// Load reads the config file at path, applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
