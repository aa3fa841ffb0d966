package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Port: "8080", RequestTimeout: 30 * time.Second},
		Ledger: LedgerConfig{
			Endpoint:      "http://localhost:8545",
			Timeout:       15 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: time.Second,
			Concurrency:   4,
		},
		Poller: PollerConfig{
			RefreshInterval: 30 * time.Second,
			TickerInterval:  time.Second,
		},
		Pledges: []string{"0x1111111111111111111111111111111111111111"},
	}
}

func TestConfig_Valid(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfig_DefaultsApplied(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP = HTTPConfig{}
	cfg.Ledger.Timeout = 0
	cfg.Ledger.MaxRetryTimes = 0
	cfg.Ledger.Concurrency = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, uint(3), cfg.Ledger.MaxRetryTimes)
	assert.Equal(t, 8, cfg.Ledger.Concurrency)
}

func TestConfig_MissingLedgerEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Endpoint = ""
	require.Error(t, cfg.Validate())
}

func TestConfig_BadPledgeAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Pledges = append(cfg.Pledges, "not-an-address")
	require.Error(t, cfg.Validate())
}

func TestPollerConfig_TickerMustBeShorter(t *testing.T) {
	cfg := validConfig()
	cfg.Poller.TickerInterval = time.Minute
	cfg.Poller.RefreshInterval = 30 * time.Second
	require.Error(t, cfg.Validate())
}

func TestPollerConfig_Defaults(t *testing.T) {
	cfg := &PollerConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, time.Second, cfg.TickerInterval)
}

func TestRedisConfig_TTLDefault(t *testing.T) {
	cfg := &RedisConfig{URL: "redis://localhost:6379"}
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())

	cfg.TTL = 5 * time.Second
	assert.Equal(t, 5*time.Second, cfg.CacheTTL())
}
