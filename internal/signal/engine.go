package signal

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/id"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

const (
	maxConfidence = 0.95
	maxRiskScore  = 0.9
	baseRiskScore = 0.3

	// Strong actions are downgraded to their plain variant above this.
	riskDowngradeThreshold = 0.7
)

// Config holds the tunable parameters of the signal engine. Weights do
// not need to sum to 1; they are renormalized over the sources present
// in each evaluation.
type Config struct {
	WeightTechnical float64
	WeightML        float64
	WeightWhale     float64
	WeightSentiment float64

	MinDataQuality float64 // confidence floor for a score to count as present
	MinConfidence  float64 // combined confidence below this forces hold

	StrongThreshold float64 // |strength| for strong buy/sell, default 0.6
	PlainThreshold  float64 // |strength| for plain buy/sell, default 0.3

	LowLiquidityVolume float64 // 24h volume below this bumps risk
	DecisionTTL        time.Duration
}

// DefaultConfig returns the engine defaults used when no overrides are
// configured.
func DefaultConfig() Config {
	return Config{
		WeightTechnical:    0.25,
		WeightML:           0.25,
		WeightWhale:        0.35,
		WeightSentiment:    0.15,
		MinDataQuality:     0.2,
		MinConfidence:      0.6,
		StrongThreshold:    0.6,
		PlainThreshold:     0.3,
		LowLiquidityVolume: 1_000_000,
		DecisionTTL:        5 * time.Minute,
	}
}

// Engine combines externally-supplied component scores into trading
// decisions. It is a pure computation over its inputs and holds no
// portfolio state.
type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.StrongThreshold == 0 {
		cfg.StrongThreshold = 0.6
	}
	if cfg.PlainThreshold == 0 {
		cfg.PlainThreshold = 0.3
	}
	if cfg.DecisionTTL == 0 {
		cfg.DecisionTTL = 5 * time.Minute
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// Generate evaluates the scores for one instrument and returns either
// an actionable decision or (nil, nil) when the correct outcome is to
// do nothing. It returns a typed InsufficientData error when fewer
// than two score kinds carry usable confidence.
func (e *Engine) Generate(inst types.Instrument, stats types.MarketStats, scores []types.ComponentScore) (*TradingDecision, error) {
	if inst.Price <= 0 {
		return nil, traderrors.NewInsufficientData("signal_engine", "no reference price for %s", inst.Symbol)
	}

	active := e.activeScores(scores)
	if len(active) < 2 {
		return nil, traderrors.NewInsufficientData("signal_engine",
			"%s: %d usable score sources, need at least 2", inst.Symbol, len(active))
	}

	strength := e.combine(active)
	confidence := e.confidence(active, strength)
	risk := e.riskScore(active, stats, confidence)

	action := e.classify(strength, risk)
	if action == ActionHold || confidence < e.cfg.MinConfidence {
		return nil, nil
	}

	entry := inst.Price
	move := expectedMove(stats.Volatility, strength, risk)
	target, stop := priceLevels(entry, move, action)

	now := e.now().UTC()
	return &TradingDecision{
		ID:           id.New(),
		Symbol:       inst.Symbol,
		Action:       action,
		Strength:     strength,
		Confidence:   confidence,
		RiskScore:    risk,
		EntryPrice:   entry,
		TargetPrice:  target,
		StopLoss:     stop,
		SizeFraction: sizeFraction(confidence, risk),
		Reasoning:    e.reasoning(active, strength, confidence, risk),
		CreatedAt:    now,
		ExpiresAt:    now.Add(e.cfg.DecisionTTL),
	}, nil
}

// activeScore is a component score after its kind-specific transform,
// carrying the weight it contributes to the combination.
type activeScore struct {
	kind       types.ScoreKind
	value      float64 // transformed, in [-1, 1]
	confidence float64
	weight     float64
}

func (e *Engine) activeScores(scores []types.ComponentScore) []activeScore {
	active := make([]activeScore, 0, len(scores))
	seen := make(map[types.ScoreKind]bool, len(scores))
	for _, s := range scores {
		if !s.Present(e.cfg.MinDataQuality) || seen[s.Kind] {
			continue
		}
		w := e.weightFor(s.Kind)
		if w <= 0 {
			continue
		}
		seen[s.Kind] = true
		active = append(active, activeScore{
			kind:       s.Kind,
			value:      transform(s),
			confidence: s.Confidence,
			weight:     w,
		})
	}
	sort.Slice(active, func(i, j int) bool { return active[i].kind < active[j].kind })
	return active
}

func (e *Engine) weightFor(kind types.ScoreKind) float64 {
	switch kind {
	case types.ScoreTechnical:
		return e.cfg.WeightTechnical
	case types.ScoreML:
		return e.cfg.WeightML
	case types.ScoreWhale:
		return e.cfg.WeightWhale
	case types.ScoreSentiment:
		return e.cfg.WeightSentiment
	default:
		return 0
	}
}

// transform maps a raw component score onto a directional value in
// [-1, 1] using its kind-specific semantics.
func transform(s types.ComponentScore) float64 {
	switch s.Kind {
	case types.ScoreWhale:
		// Whale activity is an unsigned level; direction comes from the
		// signed accumulation term.
		return clamp(0.6*s.Value*s.Confidence+0.4*s.Accumulation, -1, 1)
	case types.ScoreSentiment:
		base := s.Value * s.Confidence
		bonus := 0.2 * s.Engagement * sign(s.Value)
		return clamp(base+bonus, -1, 1)
	default:
		return clamp(s.Value, -1, 1)
	}
}

// combine renormalizes the configured weights over the present sources
// and returns the weighted strength.
func (e *Engine) combine(active []activeScore) float64 {
	var totalWeight, sum float64
	for _, a := range active {
		totalWeight += a.weight
	}
	for _, a := range active {
		sum += a.value * (a.weight / totalWeight)
	}
	return clamp(sum, -1, 1)
}

// confidence is the weighted average of the active sources'
// confidences, boosted by signal magnitude and by all sources agreeing
// in direction, capped at 0.95.
func (e *Engine) confidence(active []activeScore, strength float64) float64 {
	var totalWeight, sum float64
	for _, a := range active {
		totalWeight += a.weight
	}
	for _, a := range active {
		sum += a.confidence * (a.weight / totalWeight)
	}

	conf := sum + 0.1*math.Abs(strength)
	if agreement(active) {
		conf += 0.05
	}
	return clamp(conf, 0, maxConfidence)
}

// agreement reports whether every directional source points the same
// way. Sources at exactly zero are neutral and do not break agreement.
func agreement(active []activeScore) bool {
	var dir float64
	for _, a := range active {
		s := sign(a.value)
		if s == 0 {
			continue
		}
		if dir == 0 {
			dir = s
		} else if s != dir {
			return false
		}
	}
	return dir != 0
}

// riskScore builds the decision risk estimate from a fixed base plus
// bumps for volatility, weak confidence, conflicting sources, and thin
// liquidity. Capped at 0.9.
func (e *Engine) riskScore(active []activeScore, stats types.MarketStats, confidence float64) float64 {
	risk := baseRiskScore
	risk += clamp(stats.Volatility*5, 0, 0.25)
	if confidence < 0.5 {
		risk += 0.15
	}
	if !agreement(active) {
		risk += 0.1
	}
	if e.cfg.LowLiquidityVolume > 0 && stats.Volume24h > 0 && stats.Volume24h < e.cfg.LowLiquidityVolume {
		risk += 0.1
	}
	return clamp(risk, 0, maxRiskScore)
}

func (e *Engine) classify(strength, risk float64) Action {
	switch {
	case strength >= e.cfg.StrongThreshold:
		if risk > riskDowngradeThreshold {
			return ActionBuy
		}
		return ActionStrongBuy
	case strength >= e.cfg.PlainThreshold:
		return ActionBuy
	case strength <= -e.cfg.StrongThreshold:
		if risk > riskDowngradeThreshold {
			return ActionSell
		}
		return ActionStrongSell
	case strength <= -e.cfg.PlainThreshold:
		return ActionSell
	default:
		return ActionHold
	}
}

// expectedMove sizes the target distance from recent volatility, scaled
// up by signal strength and shrunk as risk rises.
func expectedMove(volatility, strength, risk float64) float64 {
	if volatility <= 0 {
		volatility = 0.02
	}
	move := volatility * (1 + math.Abs(strength)) * (1 - 0.3*risk)
	return clamp(move, 0.005, 0.25)
}

func priceLevels(entry, move float64, action Action) (target, stop float64) {
	if action.IsBuy() {
		return entry * (1 + move), entry * (1 - move/2)
	}
	return entry * (1 - move), entry * (1 + move/2)
}

func sizeFraction(confidence, risk float64) float64 {
	return clamp(confidence*(1-0.5*risk), 0.05, 0.25)
}

func (e *Engine) reasoning(active []activeScore, strength, confidence, risk float64) string {
	parts := make([]string, 0, len(active)+1)
	for _, a := range active {
		parts = append(parts, fmt.Sprintf("%s %+.2f (conf %.2f)", a.kind, a.value, a.confidence))
	}
	return fmt.Sprintf("strength %+.2f, confidence %.2f, risk %.2f from %s",
		strength, confidence, risk, strings.Join(parts, ", "))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
