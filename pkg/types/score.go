package types

import "time"

// ScoreKind identifies the source of a component score.
type ScoreKind string

const (
	ScoreTechnical ScoreKind = "technical"
	ScoreML        ScoreKind = "ml"
	ScoreWhale     ScoreKind = "whale"
	ScoreSentiment ScoreKind = "sentiment"
)

// ComponentScore is one externally-computed signal about an instrument.
// Value semantics depend on Kind:
//   - technical/ml: directional score already in [-1, 1]
//   - whale: activity level in [0, 1], with Accumulation carrying the
//     signed net buy/sell pressure in [-1, 1]
//   - sentiment: raw sentiment in [-1, 1], with Engagement carrying a
//     social-volume level in [0, 1]
//
// A missing or placeholder score is represented by Confidence 0 and is
// treated as absent, never substituted with generated values.
type ComponentScore struct {
	Kind         ScoreKind
	Value        float64
	Confidence   float64
	Accumulation float64
	Engagement   float64
	Timestamp    time.Time
}

// Present reports whether the score carries enough data quality to be
// used as an active signal source.
func (s ComponentScore) Present(minQuality float64) bool {
	return s.Confidence >= minQuality
}
