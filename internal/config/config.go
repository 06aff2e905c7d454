package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration. Everything is loaded from
// the environment so nothing trading-related is hard-coded; a restart
// is the reload point.
type Config struct {
	Environment string
	LogLevel    string

	Trading struct {
		Symbols         []string
		InitialCapital  float64
		FeeRate         float64
		MaxDailyTrades  int
		MaxPositions    int
		MaxHoldDuration time.Duration
		HoursStart      int // UTC hour, inclusive
		HoursEnd        int // UTC hour, exclusive; start==end means always open
		SignalInterval  time.Duration
		MonitorInterval time.Duration
		StateFile       string
	}

	Signal struct {
		MinDataQuality  float64
		MinConfidence   float64
		WeightTechnical float64
		WeightML        float64
		WeightWhale     float64
		WeightSentiment float64
		DecisionTTL     time.Duration
	}

	Risk struct {
		MaxRiskScore float64
		RiskFreeRate float64
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Trading.Symbols = splitSymbols(getEnv("TRADING_SYMBOLS", "BTC,ETH"))
	cfg.Trading.InitialCapital = getEnvFloat("INITIAL_CAPITAL", 100000.0)
	cfg.Trading.FeeRate = getEnvFloat("FEE_RATE", 0.001)
	cfg.Trading.MaxDailyTrades = getEnvInt("MAX_DAILY_TRADES", 10)
	cfg.Trading.MaxPositions = getEnvInt("MAX_POSITIONS", 10)
	cfg.Trading.MaxHoldDuration = getEnvDuration("MAX_HOLD_DURATION", 7*24*time.Hour)
	cfg.Trading.HoursStart = getEnvInt("TRADING_HOURS_START", 0)
	cfg.Trading.HoursEnd = getEnvInt("TRADING_HOURS_END", 0)
	cfg.Trading.SignalInterval = getEnvDuration("SIGNAL_INTERVAL", time.Minute)
	cfg.Trading.MonitorInterval = getEnvDuration("MONITOR_INTERVAL", 30*time.Second)
	cfg.Trading.StateFile = getEnv("STATE_FILE", "state/ledger.json")

	cfg.Signal.MinDataQuality = getEnvFloat("MIN_DATA_QUALITY", 0.2)
	cfg.Signal.MinConfidence = getEnvFloat("MIN_CONFIDENCE", 0.6)
	cfg.Signal.WeightTechnical = getEnvFloat("WEIGHT_TECHNICAL", 0.25)
	cfg.Signal.WeightML = getEnvFloat("WEIGHT_ML", 0.25)
	cfg.Signal.WeightWhale = getEnvFloat("WEIGHT_WHALE", 0.35)
	cfg.Signal.WeightSentiment = getEnvFloat("WEIGHT_SENTIMENT", 0.15)
	cfg.Signal.DecisionTTL = getEnvDuration("DECISION_TTL", 5*time.Minute)

	cfg.Risk.MaxRiskScore = getEnvFloat("MAX_RISK_SCORE", 0.8)
	cfg.Risk.RiskFreeRate = getEnvFloat("RISK_FREE_RATE", 0.02)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

// Validate checks the parts of the configuration that would otherwise
// fail deep inside a trading cycle.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("no trading symbols configured")
	}
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", c.Trading.InitialCapital)
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeRate > 0.1 {
		return fmt.Errorf("fee rate %.4f outside [0, 0.1]", c.Trading.FeeRate)
	}
	if c.Signal.MinDataQuality < 0 || c.Signal.MinDataQuality > 1 {
		return fmt.Errorf("min data quality %.2f outside [0, 1]", c.Signal.MinDataQuality)
	}
	if c.Signal.MinConfidence < 0 || c.Signal.MinConfidence > 1 {
		return fmt.Errorf("min confidence %.2f outside [0, 1]", c.Signal.MinConfidence)
	}
	total := c.Signal.WeightTechnical + c.Signal.WeightML + c.Signal.WeightWhale + c.Signal.WeightSentiment
	if total <= 0 {
		return fmt.Errorf("signal weights must sum to a positive value, got %.2f", total)
	}
	if c.Trading.HoursStart < 0 || c.Trading.HoursStart > 23 || c.Trading.HoursEnd < 0 || c.Trading.HoursEnd > 24 {
		return fmt.Errorf("trading hours %d-%d outside valid range", c.Trading.HoursStart, c.Trading.HoursEnd)
	}
	if c.Trading.SignalInterval <= 0 || c.Trading.MonitorInterval <= 0 {
		return fmt.Errorf("loop intervals must be positive")
	}
	return nil
}

// WithinTradingHours reports whether t falls inside the configured UTC
// trading window. An empty window (start == end) means always open.
func (c *Config) WithinTradingHours(t time.Time) bool {
	start, end := c.Trading.HoursStart, c.Trading.HoursEnd
	if start == end {
		return true
	}
	hour := t.UTC().Hour()
	if start < end {
		return hour >= start && hour < end
	}
	// Window wraps midnight, e.g. 22-6.
	return hour >= start || hour < end
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.ToUpper(strings.TrimSpace(p))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
