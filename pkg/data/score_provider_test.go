package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

// TestFileScoreProvider_RoundTrip reads a feed snapshot dropped by an
// external collaborator.
func TestFileScoreProvider_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	snapshot := `{
		"symbol": "BTC",
		"price": 45000,
		"stats": {"Volatility": 0.02, "Volume24h": 50000000, "PriceChange24h": 0.01},
		"scores": [
			{"Kind": "technical", "Value": 0.8, "Confidence": 0.9},
			{"Kind": "sentiment", "Value": 0.6, "Confidence": 0.6, "Engagement": 0.3}
		]
	}`
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "BTC.json"), []byte(snapshot), 0644))

	p := NewFileScoreProvider(dir, time.Minute)

	price, err := p.Price("BTC")
	assert.NoError(t, err)
	assert.Equal(t, 45000.0, price)

	stats, err := p.Stats("BTC")
	assert.NoError(t, err)
	assert.Equal(t, 0.02, stats.Volatility)

	scores, err := p.Scores("BTC")
	assert.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.Equal(t, types.ScoreTechnical, scores[0].Kind)
}

// TestFileScoreProvider_MissingSymbol errors instead of inventing data.
func TestFileScoreProvider_MissingSymbol(t *testing.T) {
	p := NewFileScoreProvider(t.TempDir(), time.Minute)
	_, err := p.Scores("DOGE")
	assert.Error(t, err)
}

// TestLoadScoreSeries groups rows by timestamp and sorts samples.
func TestLoadScoreSeries(t *testing.T) {
	csv := `timestamp,kind,value,confidence,accumulation,engagement
2025-01-01 01:00:00,technical,0.5,0.9,,
2025-01-01 00:00:00,technical,0.8,0.9,,
2025-01-01 00:00:00,whale,0.7,0.8,0.5,
2025-01-01 00:00:00,sentiment,0.6,0.6,,0.4
`
	path := filepath.Join(t.TempDir(), "scores.csv")
	assert.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	samples, err := LoadScoreSeries(path, "")
	assert.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
	assert.Len(t, samples[0].Scores, 3)
	assert.Len(t, samples[1].Scores, 1)

	for _, s := range samples[0].Scores {
		if s.Kind == types.ScoreWhale {
			assert.Equal(t, 0.5, s.Accumulation)
		}
		if s.Kind == types.ScoreSentiment {
			assert.Equal(t, 0.4, s.Engagement)
		}
	}
}

// TestLoadScoreSeries_BadRow rejects malformed numeric fields.
func TestLoadScoreSeries_BadRow(t *testing.T) {
	csv := `timestamp,kind,value,confidence
2025-01-01 00:00:00,technical,not-a-number,0.9
`
	path := filepath.Join(t.TempDir(), "scores.csv")
	assert.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	_, err := LoadScoreSeries(path, "")
	assert.Error(t, err)
}
