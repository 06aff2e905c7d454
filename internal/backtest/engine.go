package backtest

import (
	"context"
	"errors"
	"sort"
	"time"

	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/internal/paper"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

// Input is one backtest run: a candle series for a single symbol and
// the timestamped decisions to replay through it.
type Input struct {
	Symbol    string
	Candles   []types.OHLCV
	Decisions []*signal.TradingDecision

	InitialCapital float64
	FeeRate        float64
	MaxHold        time.Duration

	// RiskFreeRate is annual; PeriodsPerYear converts per-tick returns
	// for Sharpe/Sortino annualization. Defaults to 252 daily periods.
	RiskFreeRate   float64
	PeriodsPerYear float64
}

// Runner replays a historical series through the same entry/exit state
// machine the live ledger uses. Each run builds a fresh ledger, so a
// backtest never touches live state.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the backtest. It is deterministic: identical inputs
// produce identical reports. Cancellation is honored between ticks,
// never mid-mutation.
func (r *Runner) Run(ctx context.Context, in Input) (*PerformanceReport, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.PeriodsPerYear <= 0 {
		in.PeriodsPerYear = 252
	}

	decisions := make([]*signal.TradingDecision, len(in.Decisions))
	copy(decisions, in.Decisions)
	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].CreatedAt.Before(decisions[j].CreatedAt)
	})

	ledger := paper.NewLedger(in.InitialCapital, in.FeeRate, in.MaxHold)

	// The ledger's clock follows the tick being replayed, so decision
	// expiry and hold durations use series time, not wall time.
	var tickTime time.Time
	ledger.SetClock(func() time.Time { return tickTime })

	next := 0
	for _, candle := range in.Candles {
		if err := ctx.Err(); err != nil {
			return nil, traderrors.NewBacktestError("backtest", "run cancelled: %v", err)
		}
		tickTime = candle.Timestamp
		prices := map[string]float64{in.Symbol: candle.Close}

		// Exits first so a stop hit on this tick frees the book before
		// a same-tick decision tries to enter.
		if _, err := ledger.CheckExits(prices); err != nil && !traderrors.IsRecoverable(err) {
			return nil, err
		}

		for next < len(decisions) && !decisions[next].CreatedAt.After(candle.Timestamp) {
			d := decisions[next]
			next++
			if d.Symbol != in.Symbol {
				continue
			}
			if _, err := ledger.ExecuteEntry(d, candle.Close); err != nil {
				if traderrors.IsRecoverable(err) {
					continue
				}
				return nil, err
			}
		}
		ledger.MarkPrices(prices)
	}

	// Flatten anything still open at the final tick so realized stats
	// cover the whole run.
	last := in.Candles[len(in.Candles)-1]
	tickTime = last.Timestamp
	if _, ok := ledger.OpenPosition(in.Symbol); ok {
		if _, err := ledger.ClosePosition(in.Symbol, last.Close); err != nil && !traderrors.IsRecoverable(err) {
			return nil, err
		}
	}

	report := buildReport(in, ledger)
	return report, nil
}

func validate(in Input) error {
	if in.Symbol == "" {
		return traderrors.NewBacktestError("backtest", "no symbol")
	}
	if len(in.Candles) == 0 {
		return traderrors.NewBacktestError("backtest", "%s: empty candle series", in.Symbol)
	}
	if in.InitialCapital <= 0 {
		return traderrors.NewBacktestError("backtest", "initial capital must be positive, got %.2f", in.InitialCapital)
	}
	if in.FeeRate < 0 {
		return traderrors.NewBacktestError("backtest", "negative fee rate %.4f", in.FeeRate)
	}
	var prev time.Time
	for i, c := range in.Candles {
		if c.Close <= 0 || c.High <= 0 || c.Low <= 0 {
			return traderrors.NewBacktestError("backtest", "%s: non-positive price at index %d", in.Symbol, i)
		}
		if i > 0 && !c.Timestamp.After(prev) {
			return traderrors.NewBacktestError("backtest", "%s: timestamps not strictly increasing at index %d", in.Symbol, i)
		}
		prev = c.Timestamp
	}
	return nil
}

// IsBacktestError reports whether err is a typed backtest failure.
func IsBacktestError(err error) bool {
	var te *traderrors.TradeError
	return errors.As(err, &te) && te.Category == traderrors.ErrorCategoryBacktest
}
