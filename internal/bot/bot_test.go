package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
)

func sizedDecision(sizeFraction float64) *signal.TradingDecision {
	now := time.Now().UTC()
	return &signal.TradingDecision{
		ID:           "D-BTC",
		Symbol:       "BTC",
		Action:       signal.ActionBuy,
		Confidence:   0.8,
		SizeFraction: sizeFraction,
		CreatedAt:    now,
		ExpiresAt:    now.Add(5 * time.Minute),
	}
}

// TestWithCappedSize_CopiesInsteadOfMutating: capping the sizing must
// leave the generated decision untouched and return a modified copy.
func TestWithCappedSize_CopiesInsteadOfMutating(t *testing.T) {
	original := sizedDecision(0.25)

	capped := withCappedSize(original, 10000, 100000)

	assert.NotSame(t, original, capped)
	assert.Equal(t, 0.25, original.SizeFraction)
	assert.InDelta(t, 0.10, capped.SizeFraction, 1e-9)
	assert.Equal(t, original.ID, capped.ID)
}

// TestWithCappedSize_UnderCapPassesThrough returns the same decision
// when its sizing already fits the allowance.
func TestWithCappedSize_UnderCapPassesThrough(t *testing.T) {
	original := sizedDecision(0.05)

	capped := withCappedSize(original, 10000, 100000)

	assert.Same(t, original, capped)
	assert.Equal(t, 0.05, original.SizeFraction)
}

// TestWithCappedSize_ZeroPortfolioValue leaves the decision alone when
// there is no portfolio value to size against.
func TestWithCappedSize_ZeroPortfolioValue(t *testing.T) {
	original := sizedDecision(0.25)
	assert.Same(t, original, withCappedSize(original, 10000, 0))
}
