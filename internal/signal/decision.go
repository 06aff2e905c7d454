package signal

import (
	"time"
)

// Action is the directional instruction carried by a trading decision.
type Action string

const (
	ActionStrongBuy  Action = "strong_buy"
	ActionBuy        Action = "buy"
	ActionHold       Action = "hold"
	ActionSell       Action = "sell"
	ActionStrongSell Action = "strong_sell"
)

// IsBuy reports whether the action opens or adds to a long position.
func (a Action) IsBuy() bool {
	return a == ActionBuy || a == ActionStrongBuy
}

// IsSell reports whether the action reduces or closes a position.
func (a Action) IsSell() bool {
	return a == ActionSell || a == ActionStrongSell
}

// TradingDecision is the output of one signal evaluation: an actionable
// instruction with its pricing levels and provenance. Decisions are
// immutable after creation and expire after their TTL.
type TradingDecision struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	Strength     float64   `json:"strength"`   // combined score in [-1, 1]
	Confidence   float64   `json:"confidence"` // [0, 0.95]
	RiskScore    float64   `json:"risk_score"` // [0, 0.9]
	EntryPrice   float64   `json:"entry_price"`
	TargetPrice  float64   `json:"target_price"`
	StopLoss     float64   `json:"stop_loss"`
	SizeFraction float64   `json:"size_fraction"` // fraction of portfolio value
	Reasoning    string    `json:"reasoning"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the decision is too old to execute at time t.
func (d *TradingDecision) Expired(t time.Time) bool {
	return t.After(d.ExpiresAt)
}
