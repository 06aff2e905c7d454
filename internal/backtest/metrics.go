package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/crypto-signal-trader/internal/paper"
)

// PerformanceReport is the full output of one backtest run.
type PerformanceReport struct {
	Symbol         string    `json:"symbol"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`

	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	RealizedPnL    float64 `json:"realized_pnl"`
	TotalFees      float64 `json:"total_fees"`

	TotalTrades int     `json:"total_trades"` // closed round trips
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`

	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	ProfitFactor float64 `json:"profit_factor"` // +Inf when no losing trades

	AvgHoldDuration time.Duration `json:"avg_hold_duration"`
	BestTrade       float64       `json:"best_trade"`
	WorstTrade      float64       `json:"worst_trade"`

	Trades      []paper.Trade       `json:"trades"`
	EquityCurve []paper.EquityPoint `json:"equity_curve"`
}

func buildReport(in Input, ledger *paper.Ledger) *PerformanceReport {
	trades := ledger.Trades()
	equity := ledger.EquityCurve()
	perf := ledger.Performance()
	finalValue := ledger.TotalValue()

	report := &PerformanceReport{
		Symbol:         in.Symbol,
		Start:          in.Candles[0].Timestamp,
		End:            in.Candles[len(in.Candles)-1].Timestamp,
		InitialCapital: in.InitialCapital,
		FinalValue:     finalValue,
		TotalReturn:    finalValue - in.InitialCapital,
		TotalReturnPct: (finalValue - in.InitialCapital) / in.InitialCapital * 100,
		RealizedPnL:    perf.RealizedPnL,
		TotalFees:      perf.TotalFees,
		TotalTrades:    perf.TotalTrades,
		Wins:           perf.Wins,
		Losses:         perf.Losses,
		WinRate:        perf.WinRate,
		MaxDrawdown:    perf.MaxDrawdown,
		Trades:         trades,
		EquityCurve:    equity,
	}

	report.ProfitFactor = profitFactor(trades)
	report.BestTrade, report.WorstTrade = extremes(trades)
	report.AvgHoldDuration = avgHold(trades)

	returns := periodReturns(equity)
	rfPerPeriod := in.RiskFreeRate / in.PeriodsPerYear
	report.SharpeRatio = sharpe(returns, rfPerPeriod, in.PeriodsPerYear)
	report.SortinoRatio = sortino(returns, rfPerPeriod, in.PeriodsPerYear)
	return report
}

// profitFactor is gross profit over gross loss; +Inf when there are
// profits but no losses, zero when there are no profitable exits.
func profitFactor(trades []paper.Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.ExitReason == "" {
			continue
		}
		if t.RealizedPnL >= 0 {
			grossProfit += t.RealizedPnL
		} else {
			grossLoss += -t.RealizedPnL
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

func extremes(trades []paper.Trade) (best, worst float64) {
	first := true
	for _, t := range trades {
		if t.ExitReason == "" {
			continue
		}
		if first {
			best, worst = t.RealizedPnL, t.RealizedPnL
			first = false
			continue
		}
		if t.RealizedPnL > best {
			best = t.RealizedPnL
		}
		if t.RealizedPnL < worst {
			worst = t.RealizedPnL
		}
	}
	return best, worst
}

// avgHold pairs each exit with its entry by originating decision id.
func avgHold(trades []paper.Trade) time.Duration {
	entries := make(map[string]time.Time)
	var total time.Duration
	var count int
	for _, t := range trades {
		if t.ExitReason == "" {
			entries[t.DecisionID] = t.Timestamp
			continue
		}
		if entry, ok := entries[t.DecisionID]; ok {
			total += t.Timestamp.Sub(entry)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

func periodReturns(equity []paper.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	return returns
}

func sharpe(returns []float64, rfPerPeriod, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return (mean - rfPerPeriod) / std * math.Sqrt(periodsPerYear)
}

// sortino penalizes only downside deviation from the risk-free rate.
func sortino(returns []float64, rfPerPeriod, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, _ := meanStd(returns)
	var downSum float64
	var n int
	for _, r := range returns {
		if r < rfPerPeriod {
			d := r - rfPerPeriod
			downSum += d * d
		}
		n++
	}
	downside := math.Sqrt(downSum / float64(n))
	if downside == 0 {
		if mean > rfPerPeriod {
			return math.Inf(1)
		}
		return 0
	}
	return (mean - rfPerPeriod) / downside * math.Sqrt(periodsPerYear)
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
