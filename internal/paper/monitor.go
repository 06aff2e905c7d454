package paper

import (
	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
)

// CheckExits scans open positions against current prices and closes
// any that hit their stop, target, or maximum hold duration. It
// returns the exit trades applied this pass.
//
// If the ledger lock is already held by a concurrent entry, the pass
// resolves to a typed no-op rather than blocking; the monitor runs
// again shortly anyway.
func (l *Ledger) CheckExits(prices map[string]float64) ([]Trade, error) {
	if !l.mu.TryLock() {
		return nil, traderrors.NewConcurrentMutation("monitor", "ledger busy, skipping exit pass")
	}
	defer l.mu.Unlock()

	if err := l.checkHalted(); err != nil {
		return nil, err
	}

	now := l.now().UTC()
	var exits []Trade
	// Collect first: closeLocked deletes from the map being ranged.
	var due []*Position
	var reasons []ExitReason
	for sym, pos := range l.positions {
		if p, ok := prices[sym]; ok && p > 0 {
			pos.mark(p)
		}
		if reason, hit := pos.shouldExit(now, l.maxHold); hit {
			due = append(due, pos)
			reasons = append(reasons, reason)
		}
	}
	for i, pos := range due {
		trade, err := l.closeLocked(pos, pos.MarkPrice, reasons[i], now)
		if err != nil {
			return exits, err
		}
		exits = append(exits, *trade)
	}
	l.sampleEquityLocked(now)
	return exits, nil
}
