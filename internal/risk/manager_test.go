package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
)

func testLimits() Limits {
	return Limits{
		MinConfidence:  0.6,
		MaxRiskScore:   0.8,
		MaxDailyTrades: 10,
		MaxPositions:   5,
	}
}

func buyDecision(symbol string, confidence float64) *signal.TradingDecision {
	return &signal.TradingDecision{
		Symbol:     symbol,
		Action:     signal.ActionBuy,
		Confidence: confidence,
	}
}

// TestAssess_EmptyPortfolio: no positions means no exposure, no VaR
// and a LOW risk level.
func TestAssess_EmptyPortfolio(t *testing.T) {
	m := NewManager(testLimits())

	metrics := m.Assess(PortfolioSnapshot{TotalValue: 100000, Cash: 100000})

	assert.Equal(t, 0.0, metrics.Exposure)
	assert.Equal(t, 0.0, metrics.VaR95)
	assert.Equal(t, 0.0, metrics.ConcentrationRisk)
	assert.Equal(t, RiskLevelLow, metrics.Level)
}

// TestAssess_VaRAndShortfall checks the weighted-volatility VaR and
// the fixed-multiple expected shortfall.
func TestAssess_VaRAndShortfall(t *testing.T) {
	m := NewManager(testLimits())

	snap := PortfolioSnapshot{
		TotalValue: 100000,
		Cash:       80000,
		Positions: []PositionExposure{
			{Symbol: "BTC", Value: 20000, Volatility: 0.03},
		},
	}
	metrics := m.Assess(snap)

	assert.InDelta(t, 20000*0.03*1.645, metrics.VaR95, 1e-6)
	assert.InDelta(t, 20000*0.03*2.326, metrics.VaR99, 1e-6)
	assert.InDelta(t, 1.2*metrics.VaR95, metrics.ExpectedShortfall, 1e-6)
	assert.InDelta(t, 0.2, metrics.ExposureRatio, 1e-9)
}

// TestAssess_Herfindahl: a single position concentrates fully, an even
// two-way split halves the index.
func TestAssess_Herfindahl(t *testing.T) {
	m := NewManager(testLimits())

	single := m.Assess(PortfolioSnapshot{
		TotalValue: 100000,
		Positions:  []PositionExposure{{Symbol: "BTC", Value: 30000, Volatility: 0.02}},
	})
	assert.InDelta(t, 1.0, single.ConcentrationRisk, 1e-9)

	split := m.Assess(PortfolioSnapshot{
		TotalValue: 100000,
		Positions: []PositionExposure{
			{Symbol: "BTC", Value: 15000, Volatility: 0.02},
			{Symbol: "ETH", Value: 15000, Volatility: 0.02},
		},
	})
	assert.InDelta(t, 0.5, split.ConcentrationRisk, 1e-9)
}

// TestMaxPositionSize covers the shrink with risk and the 1% floor.
func TestMaxPositionSize(t *testing.T) {
	m := NewManager(testLimits())

	assert.InDelta(t, 10000, m.MaxPositionSize(100000, RiskMetrics{OverallRiskScore: 0}), 1e-6)
	assert.InDelta(t, 5000, m.MaxPositionSize(100000, RiskMetrics{OverallRiskScore: 0.5}), 1e-6)
	// 10% x (1 - 0.95) = 0.5%, below the 1% floor
	assert.InDelta(t, 1000, m.MaxPositionSize(100000, RiskMetrics{OverallRiskScore: 0.95}), 1e-6)
	assert.Equal(t, 0.0, m.MaxPositionSize(0, RiskMetrics{}))
}

// TestGate_RiskCeilingMonotonic: once the gate denies at a risk score,
// it denies at every higher score with other inputs fixed.
func TestGate_RiskCeilingMonotonic(t *testing.T) {
	m := NewManager(testLimits())
	snap := PortfolioSnapshot{TotalValue: 100000}
	d := buyDecision("BTC", 0.8)

	assert.NoError(t, m.Gate(d, RiskMetrics{OverallRiskScore: 0.5}, snap))

	deniedAt := 0.81
	for r := deniedAt; r <= 1.0; r += 0.02 {
		err := m.Gate(d, RiskMetrics{OverallRiskScore: r}, snap)
		assert.Error(t, err, "risk %.2f should be denied", r)
		assert.True(t, errors.Is(err, traderrors.ErrRiskGateDenied))
	}
}

// TestGate_LowConfidence denies below the confidence threshold.
func TestGate_LowConfidence(t *testing.T) {
	m := NewManager(testLimits())

	err := m.Gate(buyDecision("BTC", 0.4), RiskMetrics{}, PortfolioSnapshot{TotalValue: 100000})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, traderrors.ErrRiskGateDenied))
}

// TestGate_DuplicatePosition denies a buy for a symbol already open.
func TestGate_DuplicatePosition(t *testing.T) {
	m := NewManager(testLimits())
	snap := PortfolioSnapshot{
		TotalValue: 100000,
		Positions:  []PositionExposure{{Symbol: "BTC", Value: 10000}},
	}

	err := m.Gate(buyDecision("BTC", 0.8), RiskMetrics{}, snap)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, traderrors.ErrRiskGateDenied))

	// A different symbol passes.
	assert.NoError(t, m.Gate(buyDecision("ETH", 0.8), RiskMetrics{}, snap))
}

// TestGate_DailyCap denies once the day's trade count is exhausted.
func TestGate_DailyCap(t *testing.T) {
	m := NewManager(testLimits())
	snap := PortfolioSnapshot{TotalValue: 100000, DailyTradeCount: 10}

	err := m.Gate(buyDecision("BTC", 0.8), RiskMetrics{}, snap)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, traderrors.ErrRiskGateDenied))
}

// TestGate_PositionLimit denies new buys at the max position count.
func TestGate_PositionLimit(t *testing.T) {
	m := NewManager(Limits{MinConfidence: 0.6, MaxRiskScore: 0.8, MaxPositions: 1})
	snap := PortfolioSnapshot{
		TotalValue: 100000,
		Positions:  []PositionExposure{{Symbol: "ETH", Value: 10000}},
	}

	err := m.Gate(buyDecision("BTC", 0.8), RiskMetrics{}, snap)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, traderrors.ErrRiskGateDenied))
}

// TestLevelFor maps scores onto the discrete levels at the documented
// boundaries.
func TestLevelFor(t *testing.T) {
	assert.Equal(t, RiskLevelLow, LevelFor(0.39))
	assert.Equal(t, RiskLevelMedium, LevelFor(0.4))
	assert.Equal(t, RiskLevelHigh, LevelFor(0.6))
	assert.Equal(t, RiskLevelCritical, LevelFor(0.8))
}

// TestRecommendations always yields at least one line.
func TestRecommendations(t *testing.T) {
	m := NewManager(testLimits())

	recs := m.Recommendations(RiskMetrics{})
	assert.NotEmpty(t, recs)

	risky := m.Recommendations(RiskMetrics{
		ExposureRatio:     0.9,
		ConcentrationRisk: 0.8,
		MaxDrawdown:       0.2,
		Level:             RiskLevelCritical,
	})
	assert.Len(t, risky, 4)
}
