package paper

import "time"

// Side is the direction of a position or trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ExitReason records why a position left the book.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitTimeLimit  ExitReason = "time_limit"
	ExitManual     ExitReason = "manual"
)

// Position is one open simulated holding. At most one exists per
// symbol per ledger.
type Position struct {
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	EntryTime     time.Time `json:"entry_time"`
	StopLoss      float64   `json:"stop_loss"`
	TakeProfit    float64   `json:"take_profit"`
	MarkPrice     float64   `json:"mark_price"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	DecisionID    string    `json:"decision_id"`
}

// Value is the current mark value of the position.
func (p *Position) Value() float64 {
	return p.Quantity * p.MarkPrice
}

func (p *Position) mark(price float64) {
	p.MarkPrice = price
	p.UnrealizedPnL = (price - p.EntryPrice) * p.Quantity
}

// shouldExit checks the position's exit conditions against the current
// mark price and clock.
func (p *Position) shouldExit(now time.Time, maxHold time.Duration) (ExitReason, bool) {
	if p.StopLoss > 0 && p.MarkPrice <= p.StopLoss {
		return ExitStopLoss, true
	}
	if p.TakeProfit > 0 && p.MarkPrice >= p.TakeProfit {
		return ExitTakeProfit, true
	}
	if maxHold > 0 && now.Sub(p.EntryTime) >= maxHold {
		return ExitTimeLimit, true
	}
	return "", false
}

// Trade is an immutable fill record, append-only once written.
type Trade struct {
	ID          string     `json:"id"`
	Symbol      string     `json:"symbol"`
	Side        Side       `json:"side"`
	Quantity    float64    `json:"quantity"`
	Price       float64    `json:"price"`
	Fees        float64    `json:"fees"`
	RealizedPnL float64    `json:"realized_pnl"`
	ExitReason  ExitReason `json:"exit_reason,omitempty"`
	DecisionID  string     `json:"decision_id,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// EquityPoint is one sample of total portfolio value over time.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
