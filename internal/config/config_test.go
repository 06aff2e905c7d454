package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLoad_Defaults checks the defaults used when nothing is set.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", "")
	t.Setenv("INITIAL_CAPITAL", "")
	t.Setenv("FEE_RATE", "")

	cfg := Load()

	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Trading.Symbols)
	assert.Equal(t, 100000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, 0.001, cfg.Trading.FeeRate)
	assert.Equal(t, time.Minute, cfg.Trading.SignalInterval)
	assert.Equal(t, 0.6, cfg.Signal.MinConfidence)
	assert.NoError(t, cfg.Validate())
}

// TestLoad_Overrides reads values from the environment.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", "btc, sol ,ada")
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("SIGNAL_INTERVAL", "30s")
	t.Setenv("MAX_DAILY_TRADES", "5")

	cfg := Load()

	assert.Equal(t, []string{"BTC", "SOL", "ADA"}, cfg.Trading.Symbols)
	assert.Equal(t, 50000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, 30*time.Second, cfg.Trading.SignalInterval)
	assert.Equal(t, 5, cfg.Trading.MaxDailyTrades)
}

// TestLoad_BadValuesFallBack: unparseable values keep the default.
func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL", "not-a-number")
	t.Setenv("SIGNAL_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 100000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, time.Minute, cfg.Trading.SignalInterval)
}

// TestValidate_Failures covers the rejection paths.
func TestValidate_Failures(t *testing.T) {
	base := func() *Config {
		t.Setenv("TRADING_SYMBOLS", "BTC")
		return Load()
	}

	cfg := base()
	cfg.Trading.Symbols = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Trading.InitialCapital = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Trading.FeeRate = 0.5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Signal.WeightTechnical = 0
	cfg.Signal.WeightML = 0
	cfg.Signal.WeightWhale = 0
	cfg.Signal.WeightSentiment = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Trading.HoursStart = 25
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Trading.SignalInterval = 0
	assert.Error(t, cfg.Validate())
}

// TestWithinTradingHours covers the open, bounded and midnight-wrap
// windows.
func TestWithinTradingHours(t *testing.T) {
	cfg := &Config{}

	// start == end means always open
	assert.True(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)))

	cfg.Trading.HoursStart = 9
	cfg.Trading.HoursEnd = 17
	assert.True(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 16, 59, 0, 0, time.UTC)))
	assert.False(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 17, 0, 0, 0, time.UTC)))
	assert.False(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)))

	// window wrapping midnight
	cfg.Trading.HoursStart = 22
	cfg.Trading.HoursEnd = 6
	assert.True(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)))
	assert.True(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)))
	assert.False(t, cfg.WithinTradingHours(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)))
}
