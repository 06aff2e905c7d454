package paper

import (
	"sort"
	"time"
)

// PortfolioSummary is the on-demand view of current ledger state.
type PortfolioSummary struct {
	TotalValue     float64    `json:"total_value"`
	Cash           float64    `json:"cash"`
	InitialCapital float64    `json:"initial_capital"`
	UnrealizedPnL  float64    `json:"unrealized_pnl"`
	RealizedPnL    float64    `json:"realized_pnl"`
	TotalReturnPct float64    `json:"total_return_pct"`
	OpenPositions  []Position `json:"open_positions"`
	TradeCount     int        `json:"trade_count"`
	Timestamp      time.Time  `json:"timestamp"`
}

// TradingPerformance is the running aggregate over closed trades.
type TradingPerformance struct {
	TotalTrades int     `json:"total_trades"` // closed round trips
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	RealizedPnL float64 `json:"realized_pnl"`
	TotalFees   float64 `json:"total_fees"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Summary returns the portfolio summary as of now.
func (l *Ledger) Summary() PortfolioSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := PortfolioSummary{
		TotalValue:     l.totalValueLocked(),
		Cash:           l.cash,
		InitialCapital: l.initialCapital,
		RealizedPnL:    l.realizedPnL,
		TradeCount:     len(l.trades),
		Timestamp:      l.now().UTC(),
	}
	for _, pos := range l.positions {
		s.UnrealizedPnL += pos.UnrealizedPnL
		s.OpenPositions = append(s.OpenPositions, *pos)
	}
	sort.Slice(s.OpenPositions, func(i, j int) bool {
		return s.OpenPositions[i].Symbol < s.OpenPositions[j].Symbol
	})
	if l.initialCapital > 0 {
		s.TotalReturnPct = (s.TotalValue - l.initialCapital) / l.initialCapital * 100
	}
	return s
}

// Performance returns the running win/loss aggregate.
func (l *Ledger) Performance() TradingPerformance {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := TradingPerformance{
		TotalTrades: l.winCount + l.lossCount,
		Wins:        l.winCount,
		Losses:      l.lossCount,
		RealizedPnL: l.realizedPnL,
		TotalFees:   l.totalFees,
		MaxDrawdown: l.maxDrawdown,
	}
	if p.TotalTrades > 0 {
		p.WinRate = float64(p.Wins) / float64(p.TotalTrades)
	}
	return p
}

// Trades returns a copy of the trade history.
func (l *Ledger) Trades() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// EquityCurve returns a copy of the sampled equity curve.
func (l *Ledger) EquityCurve() []EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}

// OpenPosition returns a copy of the open position for symbol, if any.
func (l *Ledger) OpenPosition(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// TotalValue returns cash plus marked position value.
func (l *Ledger) TotalValue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked()
}
