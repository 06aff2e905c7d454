package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/crypto-signal-trader/internal/backtest"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/data"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/reporting"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

const volatilityWindow = 24

func main() {
	var (
		dataFile   = flag.String("data", "", "Historical candle CSV (timestamp,open,high,low,close,volume)")
		scoresFile = flag.String("scores", "", "Historical score CSV (timestamp,kind,value,confidence,accumulation,engagement)")
		symbol     = flag.String("symbol", "BTC", "Instrument symbol")
		capital    = flag.Float64("capital", 100000, "Initial capital")
		feeRate    = flag.Float64("fee", 0.001, "Fee rate per fill")
		riskFree   = flag.Float64("risk-free", 0.02, "Annual risk-free rate for Sharpe/Sortino")
		maxHold    = flag.Duration("max-hold", 7*24*time.Hour, "Maximum position hold duration")
		periods    = flag.Float64("periods-per-year", 252, "Return periods per year for annualization")
		output     = flag.String("output", "", "Optional xlsx report path")
		showTrades = flag.Bool("trades", false, "Print the trade history table")
		envFile    = flag.String("env", ".env", "Environment file path (default: .env)")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err == nil {
		fmt.Println("🔧 Loaded environment overrides from", *envFile)
	}

	if *dataFile == "" || *scoresFile == "" {
		log.Fatal("Please specify both -data and -scores files")
	}

	provider := data.NewCSVProvider()
	candles, err := provider.LoadData(*dataFile)
	if err != nil {
		log.Fatalf("Failed to load candles: %v", err)
	}
	if err := provider.ValidateData(candles); err != nil {
		log.Fatalf("Invalid candle data: %v", err)
	}

	samples, err := data.LoadScoreSeries(*scoresFile, "")
	if err != nil {
		log.Fatalf("Failed to load score series: %v", err)
	}

	fmt.Printf("📊 Loaded %d candles and %d score samples for %s\n", len(candles), len(samples), *symbol)

	decisions := generateDecisions(*symbol, candles, samples)
	fmt.Printf("🧠 Signal engine produced %d decisions\n", len(decisions))

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := backtest.NewRunner().Run(ctx, backtest.Input{
		Symbol:         *symbol,
		Candles:        candles,
		Decisions:      decisions,
		InitialCapital: *capital,
		FeeRate:        *feeRate,
		MaxHold:        *maxHold,
		RiskFreeRate:   *riskFree,
		PeriodsPerYear: *periods,
	})
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	reporter := reporting.NewDefaultConsoleReporter()
	reporter.OutputReport(report)
	if *showTrades {
		reporter.OutputTrades(report.Trades)
	}

	if *output != "" {
		if err := reporting.NewDefaultExcelReporter().WriteReportXLSX(report, *output); err != nil {
			log.Fatalf("Failed to write xlsx report: %v", err)
		}
		fmt.Printf("📄 Report written to %s\n", *output)
	}
}

// generateDecisions replays the score samples through the signal
// engine, pricing each sample off the latest candle at or before its
// timestamp so no decision sees future data.
func generateDecisions(symbol string, candles []types.OHLCV, samples []data.ScoreSample) []*signal.TradingDecision {
	engine := signal.NewEngine(signal.DefaultConfig())

	var decisions []*signal.TradingDecision
	ci := 0
	for _, sample := range samples {
		for ci < len(candles)-1 && !candles[ci+1].Timestamp.After(sample.Timestamp) {
			ci++
		}
		candle := candles[ci]
		if candle.Timestamp.After(sample.Timestamp) {
			continue // sample predates the series
		}

		stats := types.MarketStats{
			Volatility: rollingVolatility(candles, ci),
			Volume24h:  candle.Volume,
		}
		decision, err := engine.Generate(types.Instrument{Symbol: symbol, Price: candle.Close}, stats, sample.Scores)
		if err != nil || decision == nil {
			continue
		}
		// Re-anchor a copy to series time so expiry works in replay;
		// the engine's output itself stays untouched.
		replay := *decision
		replay.CreatedAt = sample.Timestamp
		replay.ExpiresAt = sample.Timestamp.Add(5 * time.Minute)
		decisions = append(decisions, &replay)
	}
	return decisions
}

// rollingVolatility is the stddev of close-to-close returns over the
// trailing window ending at index i.
func rollingVolatility(candles []types.OHLCV, i int) float64 {
	start := i - volatilityWindow
	if start < 1 {
		start = 1
	}
	var returns []float64
	for j := start; j <= i; j++ {
		prev := candles[j-1].Close
		if prev > 0 {
			returns = append(returns, (candles[j].Close-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0.02
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(returns)))
}
