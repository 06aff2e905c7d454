package data

import "github.com/ducminhle1904/crypto-signal-trader/pkg/types"

// MarketDataProvider supplies historical candle series for backtests.
type MarketDataProvider interface {
	GetName() string
	LoadData(source string) ([]types.OHLCV, error)
	ValidateData(data []types.OHLCV) error
}

// ScoreProvider supplies the externally-computed component scores and
// market context per instrument. Implementations are collaborators
// outside the decision core; values returned are already resolved and
// never block on network I/O from the trading loops' perspective.
type ScoreProvider interface {
	Scores(symbol string) ([]types.ComponentScore, error)
	Price(symbol string) (float64, error)
	Stats(symbol string) (types.MarketStats, error)
}
