package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

func testInstrument() types.Instrument {
	return types.Instrument{Symbol: "BTC", Price: 45000}
}

func calmStats() types.MarketStats {
	return types.MarketStats{Volatility: 0.02, Volume24h: 50_000_000}
}

// TestGenerate_RenormalizedWeights checks the combination over a
// partial source set: technical, ML and sentiment present, whale
// absent, yielding a buy with solid confidence.
func TestGenerate_RenormalizedWeights(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.8, Confidence: 0.9},
		{Kind: types.ScoreML, Value: 0.4, Confidence: 0.7},
		{Kind: types.ScoreWhale, Value: 0.5, Confidence: 0}, // absent
		{Kind: types.ScoreSentiment, Value: 0.6, Confidence: 0.6},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	assert.Equal(t, ActionBuy, decision.Action)
	assert.GreaterOrEqual(t, decision.Confidence, 0.6)
	assert.LessOrEqual(t, decision.Confidence, 0.95)
	assert.NotEmpty(t, decision.ID)
	assert.NotEmpty(t, decision.Reasoning)
	assert.True(t, decision.ExpiresAt.After(decision.CreatedAt))
}

// TestGenerate_InsufficientData verifies the typed error when fewer
// than two sources carry usable confidence.
func TestGenerate_InsufficientData(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.8, Confidence: 0.9},
		{Kind: types.ScoreML, Value: 0.4, Confidence: 0.1}, // below quality threshold
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.Nil(t, decision)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, traderrors.ErrInsufficientData))
}

// TestGenerate_HoldReturnsNothing: weak combined strength must produce
// no decision and no error.
func TestGenerate_HoldReturnsNothing(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.1, Confidence: 0.9},
		{Kind: types.ScoreML, Value: -0.05, Confidence: 0.8},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.Nil(t, decision)
}

// TestGenerate_LowConfidenceForcesHold: directional strength with
// confidence under the minimum yields no decision.
func TestGenerate_LowConfidenceForcesHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.9
	engine := NewEngine(cfg)

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.7, Confidence: 0.5},
		{Kind: types.ScoreML, Value: 0.6, Confidence: 0.5},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.Nil(t, decision)
}

// TestGenerate_ConfidenceCap: maximal agreeing inputs never push
// confidence above 0.95.
func TestGenerate_ConfidenceCap(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 1.0, Confidence: 1.0},
		{Kind: types.ScoreML, Value: 1.0, Confidence: 1.0},
		{Kind: types.ScoreWhale, Value: 1.0, Confidence: 1.0, Accumulation: 1.0},
		{Kind: types.ScoreSentiment, Value: 1.0, Confidence: 1.0, Engagement: 1.0},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	assert.LessOrEqual(t, decision.Confidence, 0.95)
	assert.LessOrEqual(t, decision.RiskScore, 0.9)
}

// TestGenerate_StrongDowngradeOnHighRisk: a strong signal in a risky
// market is downgraded to a plain buy.
func TestGenerate_StrongDowngradeOnHighRisk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.1
	engine := NewEngine(cfg)

	// High volatility, thin liquidity and one conflicting source push
	// risk past the downgrade threshold.
	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.9, Confidence: 0.9},
		{Kind: types.ScoreML, Value: 0.9, Confidence: 0.9},
		{Kind: types.ScoreSentiment, Value: -0.1, Confidence: 0.5},
	}
	stats := types.MarketStats{Volatility: 0.06, Volume24h: 500_000}

	decision, err := engine.Generate(testInstrument(), stats, scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	assert.Greater(t, decision.RiskScore, 0.7)
	assert.Equal(t, ActionBuy, decision.Action)
}

// TestGenerate_SellSide checks the sell path and its price levels.
func TestGenerate_SellSide(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: -0.8, Confidence: 0.9},
		{Kind: types.ScoreML, Value: -0.6, Confidence: 0.8},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	assert.True(t, decision.Action.IsSell())
	assert.Less(t, decision.TargetPrice, decision.EntryPrice)
	assert.Greater(t, decision.StopLoss, decision.EntryPrice)
}

// TestGenerate_SizeFractionBounds: sizing stays in [0.05, 0.25].
func TestGenerate_SizeFractionBounds(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.9, Confidence: 0.95},
		{Kind: types.ScoreML, Value: 0.9, Confidence: 0.95},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	assert.GreaterOrEqual(t, decision.SizeFraction, 0.05)
	assert.LessOrEqual(t, decision.SizeFraction, 0.25)
}

// TestTransform_Whale: direction comes from accumulation, level from
// activity times confidence.
func TestTransform_Whale(t *testing.T) {
	score := types.ComponentScore{
		Kind:         types.ScoreWhale,
		Value:        0.8,
		Confidence:   0.9,
		Accumulation: -1.0,
	}
	v := transform(score)
	assert.InDelta(t, 0.6*0.8*0.9+0.4*(-1.0), v, 1e-9)

	score.Accumulation = 1.0
	assert.Greater(t, transform(score), 0.0)
}

// TestTransform_SentimentClamped: engagement bonus follows the sign of
// the sentiment and the result stays in [-1, 1].
func TestTransform_Sentiment(t *testing.T) {
	score := types.ComponentScore{
		Kind:       types.ScoreSentiment,
		Value:      0.6,
		Confidence: 0.6,
		Engagement: 0.5,
	}
	assert.InDelta(t, 0.6*0.6+0.2*0.5, transform(score), 1e-9)

	score.Value = -1.0
	score.Confidence = 1.0
	score.Engagement = 1.0
	assert.GreaterOrEqual(t, transform(score), -1.0)
}

// TestDecision_Expired exercises the expiry check both ways.
func TestDecision_Expired(t *testing.T) {
	now := time.Now()
	d := &TradingDecision{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, d.Expired(now))
	assert.True(t, d.Expired(now.Add(2*time.Minute)))
}

// TestGenerate_DuplicateKindIgnored: a second score of the same kind
// does not double its weight.
func TestGenerate_DuplicateKindIgnored(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	scores := []types.ComponentScore{
		{Kind: types.ScoreTechnical, Value: 0.8, Confidence: 0.9},
		{Kind: types.ScoreTechnical, Value: -0.8, Confidence: 0.9},
		{Kind: types.ScoreML, Value: 0.8, Confidence: 0.9},
	}

	decision, err := engine.Generate(testInstrument(), calmStats(), scores)
	assert.NoError(t, err)
	assert.NotNil(t, decision)
	// Both active sources agree at +0.8, so the combination is +0.8.
	assert.InDelta(t, 0.8, decision.Strength, 1e-9)
}
