package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Instrument is a tradable symbol with its current reference price.
// The price is supplied externally and treated as read-only.
type Instrument struct {
	Symbol string
	Price  float64
}

// MarketStats carries the rolling 24h statistics used for risk scoring
// and target sizing. Volatility is a fraction of price (0.02 = 2%).
type MarketStats struct {
	Volatility     float64
	Volume24h      float64
	PriceChange24h float64
}
