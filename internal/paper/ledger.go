package paper

import (
	"fmt"
	"sync"
	"time"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/internal/risk"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
)

// Ledger is the single source of truth for simulated cash, open
// positions and trade history. Every mutation happens under one mutex,
// and balance changes occur only through ExecuteEntry and executeExit.
//
// A fatal invariant violation (negative cash, duplicate position)
// halts the ledger: all further mutating calls fail until an operator
// intervenes.
type Ledger struct {
	mu sync.Mutex

	cash           float64
	initialCapital float64
	feeRate        float64
	maxHold        time.Duration

	positions  map[string]*Position
	trades     []Trade
	equity     []EquityPoint
	dailyLimit int // max trades per UTC day, 0 = unlimited

	peakValue   float64
	maxDrawdown float64

	winCount    int
	lossCount   int
	realizedPnL float64
	totalFees   float64

	dailyCount int
	dailyDate  string // UTC date the counter belongs to

	halted  bool
	haltErr error

	now func() time.Time
}

func NewLedger(initialCapital, feeRate float64, maxHold time.Duration) *Ledger {
	return &Ledger{
		cash:           initialCapital,
		initialCapital: initialCapital,
		feeRate:        feeRate,
		maxHold:        maxHold,
		positions:      make(map[string]*Position),
		peakValue:      initialCapital,
		now:            time.Now,
	}
}

// SetDailyTradeLimit caps trades per UTC day. The cap is enforced
// under the same lock as the entry itself, so a monitor exit bumping
// the counter between a gate check and execution cannot exceed it.
func (l *Ledger) SetDailyTradeLimit(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dailyLimit = n
}

// SetClock replaces the ledger's time source. The backtester uses this
// to replay historical series deterministically.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// ExecuteEntry validates and applies a gated decision as a new entry.
// Buy decisions open a long position; sell decisions close an existing
// long (sell-to-close). The mutation is all-or-nothing.
func (l *Ledger) ExecuteEntry(decision *signal.TradingDecision, price float64) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkHalted(); err != nil {
		return nil, err
	}
	now := l.now().UTC()
	if decision.Expired(now) {
		return nil, traderrors.NewStaleDecision("ledger",
			"%s: decision %s expired at %s", decision.Symbol, decision.ID, decision.ExpiresAt.Format(time.RFC3339))
	}
	if price <= 0 {
		return nil, traderrors.NewInsufficientData("ledger", "%s: no fill price", decision.Symbol)
	}

	if decision.Action.IsSell() {
		pos, ok := l.positions[decision.Symbol]
		if !ok {
			return nil, traderrors.NewInsufficientHoldings("ledger",
				"%s: sell with no open position", decision.Symbol)
		}
		return l.closeLocked(pos, price, ExitManual, now)
	}

	if _, exists := l.positions[decision.Symbol]; exists {
		return nil, traderrors.NewRiskGateDenied("ledger",
			"%s: position already open", decision.Symbol)
	}

	l.rollDailyLocked(now)
	if l.dailyLimit > 0 && l.dailyCount >= l.dailyLimit {
		return nil, traderrors.NewRiskGateDenied("ledger",
			"%s: daily trade cap %d reached", decision.Symbol, l.dailyLimit)
	}

	quantity := decision.SizeFraction * l.totalValueLocked() / price
	if quantity <= 0 {
		return nil, traderrors.NewInsufficientFunds("ledger",
			"%s: computed quantity is zero", decision.Symbol)
	}
	cost := quantity * price * (1 + l.feeRate)
	if cost > l.cash {
		return nil, traderrors.NewInsufficientFunds("ledger",
			"%s: need %.2f, cash %.2f", decision.Symbol, cost, l.cash)
	}

	fee := quantity * price * l.feeRate
	l.cash -= cost
	if l.cash < 0 {
		return nil, l.haltLocked(traderrors.NewInvariantViolation("ledger",
			"cash went negative (%.2f) on %s entry", l.cash, decision.Symbol))
	}

	pos := &Position{
		Symbol:     decision.Symbol,
		Side:       SideBuy,
		Quantity:   quantity,
		EntryPrice: price,
		EntryTime:  now,
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TargetPrice,
		DecisionID: decision.ID,
	}
	pos.mark(price)
	l.positions[decision.Symbol] = pos

	trade := Trade{
		ID:         l.nextTradeIDLocked(),
		Symbol:     decision.Symbol,
		Side:       SideBuy,
		Quantity:   quantity,
		Price:      price,
		Fees:       fee,
		DecisionID: decision.ID,
		Timestamp:  now,
	}
	l.trades = append(l.trades, trade)
	l.totalFees += fee
	l.bumpDailyLocked(now)
	l.sampleEquityLocked(now)
	return &trade, nil
}

// ClosePosition closes an open position at the given price with the
// manual exit reason.
func (l *Ledger) ClosePosition(symbol string, price float64) (*Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkHalted(); err != nil {
		return nil, err
	}
	pos, ok := l.positions[symbol]
	if !ok {
		return nil, traderrors.NewInsufficientHoldings("ledger", "%s: no open position", symbol)
	}
	return l.closeLocked(pos, price, ExitManual, l.now().UTC())
}

// closeLocked applies an exit. Caller must hold l.mu.
func (l *Ledger) closeLocked(pos *Position, price float64, reason ExitReason, now time.Time) (*Trade, error) {
	entryFee := pos.Quantity * pos.EntryPrice * l.feeRate
	exitFee := pos.Quantity * price * l.feeRate
	proceeds := pos.Quantity * price * (1 - l.feeRate)
	realized := (price-pos.EntryPrice)*pos.Quantity - entryFee - exitFee

	l.cash += proceeds
	delete(l.positions, pos.Symbol)

	trade := Trade{
		ID:          l.nextTradeIDLocked(),
		Symbol:      pos.Symbol,
		Side:        SideSell,
		Quantity:    pos.Quantity,
		Price:       price,
		Fees:        exitFee,
		RealizedPnL: realized,
		ExitReason:  reason,
		DecisionID:  pos.DecisionID,
		Timestamp:   now,
	}
	l.trades = append(l.trades, trade)
	l.totalFees += exitFee
	l.realizedPnL += realized
	if realized >= 0 {
		l.winCount++
	} else {
		l.lossCount++
	}
	l.bumpDailyLocked(now)
	l.sampleEquityLocked(now)
	return &trade, nil
}

// MarkPrices updates mark prices for all open positions and samples
// the equity curve. Unknown symbols keep their last mark.
func (l *Ledger) MarkPrices(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for sym, pos := range l.positions {
		if p, ok := prices[sym]; ok && p > 0 {
			pos.mark(p)
		}
	}
	l.sampleEquityLocked(l.now().UTC())
}

// RiskSnapshot builds the immutable portfolio view the risk manager
// assesses. Volatilities come from the caller's market stats.
func (l *Ledger) RiskSnapshot(volatilities map[string]float64) risk.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	l.rollDailyLocked(now)

	snap := risk.PortfolioSnapshot{
		TotalValue:      l.totalValueLocked(),
		Cash:            l.cash,
		MaxDrawdown:     l.maxDrawdown,
		DailyTradeCount: l.dailyCount,
		TakenAt:         now,
	}
	for _, pos := range l.positions {
		snap.Positions = append(snap.Positions, risk.PositionExposure{
			Symbol:     pos.Symbol,
			Value:      pos.Value(),
			Volatility: volatilities[pos.Symbol],
		})
	}
	return snap
}

// Halted reports whether the ledger has shut itself down, and why.
func (l *Ledger) Halted() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.halted, l.haltErr
}

func (l *Ledger) checkHalted() error {
	if l.halted {
		return traderrors.NewInvariantViolation("ledger", "halted: %v", l.haltErr)
	}
	return nil
}

func (l *Ledger) haltLocked(err error) error {
	l.halted = true
	l.haltErr = err
	return err
}

// nextTradeIDLocked issues sequential trade ids. Sequential rather
// than random so identical backtest inputs produce identical reports.
func (l *Ledger) nextTradeIDLocked() string {
	return fmt.Sprintf("T%06d", len(l.trades)+1)
}

// totalValueLocked is cash plus the mark value of all open positions.
func (l *Ledger) totalValueLocked() float64 {
	total := l.cash
	for _, pos := range l.positions {
		total += pos.Value()
	}
	return total
}

// maxEquitySamples bounds the in-memory equity curve. Long-running
// sessions sample every cycle and persist the curve on every save, so
// it cannot grow without limit.
const maxEquitySamples = 8192

func (l *Ledger) sampleEquityLocked(now time.Time) {
	value := l.totalValueLocked()
	l.equity = append(l.equity, EquityPoint{Timestamp: now, Value: value})
	if len(l.equity) > maxEquitySamples {
		l.equity = thinEquity(l.equity)
	}
	if value > l.peakValue {
		l.peakValue = value
	}
	if l.peakValue > 0 {
		dd := (l.peakValue - value) / l.peakValue
		if dd > l.maxDrawdown {
			l.maxDrawdown = dd
		}
	}
}

// thinEquity halves the curve's resolution by dropping every other
// sample, always keeping the newest point. Deterministic so replayed
// runs stay reproducible.
func thinEquity(points []EquityPoint) []EquityPoint {
	thinned := points[:0]
	for i := 0; i < len(points); i += 2 {
		thinned = append(thinned, points[i])
	}
	if last := points[len(points)-1]; thinned[len(thinned)-1] != last {
		thinned = append(thinned, last)
	}
	return thinned
}

func (l *Ledger) bumpDailyLocked(now time.Time) {
	l.rollDailyLocked(now)
	l.dailyCount++
}

func (l *Ledger) rollDailyLocked(now time.Time) {
	date := now.Format("2006-01-02")
	if date != l.dailyDate {
		l.dailyDate = date
		l.dailyCount = 0
	}
}
