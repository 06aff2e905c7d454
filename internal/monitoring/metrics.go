package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trader_trades_total",
			Help: "Total number of simulated trades executed",
		},
		[]string{"symbol", "side", "reason"},
	)

	tradeValue = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_trader_trade_value",
			Help:    "Distribution of trade notional values",
			Buckets: prometheus.ExponentialBuckets(100, 3, 8),
		},
		[]string{"symbol"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_trader_current_price",
			Help: "Current reference price per symbol",
		},
		[]string{"symbol"},
	)

	// Decision metrics
	decisionConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signal_trader_decision_confidence",
			Help: "Confidence of the latest decision per symbol",
		},
		[]string{"symbol"},
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trader_decisions_total",
			Help: "Total decisions produced, by action",
		},
		[]string{"symbol", "action"},
	)

	// Portfolio metrics
	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_trader_portfolio_value",
			Help: "Total simulated portfolio value",
		},
	)

	riskScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_trader_risk_score",
			Help: "Overall portfolio risk score",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trader_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeValue)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(decisionConfidence)
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(riskScore)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTrade records an executed trade
func RecordTrade(symbol, side, reason string, value float64) {
	tradesTotal.WithLabelValues(symbol, side, reason).Inc()
	tradeValue.WithLabelValues(symbol).Observe(value)
}

// UpdatePrice updates the current price metric
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// RecordDecision records a produced decision and its confidence
func RecordDecision(symbol, action string, confidence float64) {
	decisionsTotal.WithLabelValues(symbol, action).Inc()
	decisionConfidence.WithLabelValues(symbol).Set(confidence)
}

// UpdatePortfolio updates the portfolio value and risk gauges
func UpdatePortfolio(value, risk float64) {
	portfolioValue.Set(value)
	riskScore.Set(risk)
}

// RecordError records an error metric by category
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
