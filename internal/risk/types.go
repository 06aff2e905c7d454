package risk

import "time"

// RiskLevel is the discrete classification of overall portfolio risk.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// LevelFor maps an overall risk score onto a discrete level.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskLevelCritical
	case score >= 0.6:
		return RiskLevelHigh
	case score >= 0.4:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// PositionExposure is the slice of a portfolio snapshot the risk
// manager needs about one open position.
type PositionExposure struct {
	Symbol     string
	Value      float64 // quantity x mark price
	Volatility float64 // instrument 24h volatility, fraction of price
}

// PortfolioSnapshot is an immutable copy of ledger state taken under
// the ledger lock. The risk manager never reads the ledger directly.
type PortfolioSnapshot struct {
	TotalValue      float64
	Cash            float64
	MaxDrawdown     float64 // peak-to-trough fraction observed so far
	Positions       []PositionExposure
	DailyTradeCount int
	TakenAt         time.Time
}

// RiskMetrics is the derived risk state for one snapshot. Always
// recomputed, never persisted.
type RiskMetrics struct {
	PortfolioValue    float64
	Exposure          float64 // sum of open position values
	ExposureRatio     float64 // exposure / portfolio value
	VaR95             float64
	VaR99             float64
	ExpectedShortfall float64
	MaxDrawdown       float64
	ConcentrationRisk float64 // Herfindahl index over position weights
	MaxPositionValue  float64
	OverallRiskScore  float64
	Level             RiskLevel
}
