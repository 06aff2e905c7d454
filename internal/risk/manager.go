package risk

import (
	"math"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
)

const (
	// One-tailed normal quantiles for the VaR confidence levels.
	zScore95 = 1.645
	zScore99 = 2.326

	// Expected shortfall approximated as a fixed multiple of VaR95.
	shortfallMultiple = 1.2

	// Position sizing: base fraction of portfolio value, and the floor
	// below which a position is not worth opening.
	basePositionFraction  = 0.10
	floorPositionFraction = 0.01
)

// Limits are the gate thresholds. They come from configuration, not
// from the decision being gated.
type Limits struct {
	MinConfidence  float64
	MaxRiskScore   float64 // overall portfolio risk ceiling, default 0.8
	MaxDailyTrades int
	MaxPositions   int
}

// Manager computes portfolio risk metrics and admits or denies
// decisions before they reach the ledger. All methods are pure
// functions over their inputs.
type Manager struct {
	limits Limits
}

func NewManager(limits Limits) *Manager {
	if limits.MaxRiskScore == 0 {
		limits.MaxRiskScore = 0.8
	}
	return &Manager{limits: limits}
}

// Assess derives the full risk metric set from a portfolio snapshot.
//
// The overall score is a weighted sum of normalized sub-metrics:
// 30% exposure ratio, 30% VaR95 relative to a 10%-of-value ceiling,
// 20% concentration, 20% observed max drawdown.
func (m *Manager) Assess(snap PortfolioSnapshot) RiskMetrics {
	metrics := RiskMetrics{
		PortfolioValue: snap.TotalValue,
		MaxDrawdown:    snap.MaxDrawdown,
	}
	if snap.TotalValue <= 0 {
		metrics.Level = RiskLevelCritical
		metrics.OverallRiskScore = 1
		return metrics
	}

	var exposure, weightedVol float64
	for _, p := range snap.Positions {
		exposure += p.Value
		weightedVol += p.Value * p.Volatility
	}
	metrics.Exposure = exposure
	metrics.ExposureRatio = exposure / snap.TotalValue
	if exposure > 0 {
		weightedVol /= exposure
	}

	metrics.VaR95 = exposure * weightedVol * zScore95
	metrics.VaR99 = exposure * weightedVol * zScore99
	metrics.ExpectedShortfall = shortfallMultiple * metrics.VaR95
	metrics.ConcentrationRisk = herfindahl(snap.Positions, exposure)

	varRatio := clamp01(metrics.VaR95 / (0.10 * snap.TotalValue))
	metrics.OverallRiskScore = clamp01(
		0.3*metrics.ExposureRatio +
			0.3*varRatio +
			0.2*metrics.ConcentrationRisk +
			0.2*clamp01(snap.MaxDrawdown))
	metrics.Level = LevelFor(metrics.OverallRiskScore)
	metrics.MaxPositionValue = m.MaxPositionSize(snap.TotalValue, metrics)
	return metrics
}

// MaxPositionSize is the largest new-position value allowed:
// min(10% x value x (1 - risk), 10% x value), floored at 1% of value.
func (m *Manager) MaxPositionSize(portfolioValue float64, metrics RiskMetrics) float64 {
	if portfolioValue <= 0 {
		return 0
	}
	base := basePositionFraction * portfolioValue
	adjusted := base * (1 - metrics.OverallRiskScore)
	size := math.Min(adjusted, base)
	return math.Max(size, floorPositionFraction*portfolioValue)
}

// Gate admits or denies a decision against a portfolio snapshot. The
// snapshot may be slightly stale by execution time, so the ledger
// re-verifies the open-position and daily-cap checks under its own
// lock; Gate exists to reject early and to apply the confidence and
// portfolio-risk ceilings, which only it knows.
func (m *Manager) Gate(decision *signal.TradingDecision, metrics RiskMetrics, snap PortfolioSnapshot) error {
	if decision.Confidence < m.limits.MinConfidence {
		return traderrors.NewRiskGateDenied("risk_gate",
			"%s: confidence %.2f below minimum %.2f",
			decision.Symbol, decision.Confidence, m.limits.MinConfidence)
	}
	if metrics.OverallRiskScore > m.limits.MaxRiskScore {
		return traderrors.NewRiskGateDenied("risk_gate",
			"%s: portfolio risk %.2f above ceiling %.2f",
			decision.Symbol, metrics.OverallRiskScore, m.limits.MaxRiskScore)
	}
	if decision.Action.IsBuy() {
		for _, p := range snap.Positions {
			if p.Symbol == decision.Symbol {
				return traderrors.NewRiskGateDenied("risk_gate",
					"%s: position already open", decision.Symbol)
			}
		}
		if m.limits.MaxPositions > 0 && len(snap.Positions) >= m.limits.MaxPositions {
			return traderrors.NewRiskGateDenied("risk_gate",
				"%s: position limit %d reached", decision.Symbol, m.limits.MaxPositions)
		}
	}
	if m.limits.MaxDailyTrades > 0 && snap.DailyTradeCount >= m.limits.MaxDailyTrades {
		return traderrors.NewRiskGateDenied("risk_gate",
			"%s: daily trade cap %d reached", decision.Symbol, m.limits.MaxDailyTrades)
	}
	return nil
}

// Recommendations turns the metric set into operator-facing guidance.
func (m *Manager) Recommendations(metrics RiskMetrics) []string {
	var recs []string
	if metrics.ExposureRatio > 0.8 {
		recs = append(recs, "exposure above 80% of portfolio value, hold cash on new entries")
	}
	if metrics.ConcentrationRisk > 0.5 {
		recs = append(recs, "portfolio concentrated in few positions, diversify entries")
	}
	if metrics.MaxDrawdown > 0.15 {
		recs = append(recs, "drawdown above 15%, consider reducing position sizes")
	}
	if metrics.Level == RiskLevelCritical {
		recs = append(recs, "risk level CRITICAL, new entries will be denied")
	}
	if len(recs) == 0 {
		recs = append(recs, "risk profile within normal bounds")
	}
	return recs
}

// herfindahl measures concentration over position weights: 1/n for an
// evenly-split book, 1.0 for a single position.
func herfindahl(positions []PositionExposure, exposure float64) float64 {
	if exposure <= 0 {
		return 0
	}
	var sum float64
	for _, p := range positions {
		w := p.Value / exposure
		sum += w * w
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
