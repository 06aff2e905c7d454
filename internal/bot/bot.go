package bot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-signal-trader/internal/config"
	traderrors "github.com/ducminhle1904/crypto-signal-trader/internal/errors"
	"github.com/ducminhle1904/crypto-signal-trader/internal/logger"
	"github.com/ducminhle1904/crypto-signal-trader/internal/monitoring"
	"github.com/ducminhle1904/crypto-signal-trader/internal/notifications"
	"github.com/ducminhle1904/crypto-signal-trader/internal/paper"
	"github.com/ducminhle1904/crypto-signal-trader/internal/risk"
	"github.com/ducminhle1904/crypto-signal-trader/internal/signal"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/data"
	"github.com/ducminhle1904/crypto-signal-trader/pkg/types"
)

// PaperBot runs the live paper trading session: a signal loop that
// generates and executes decisions, and a faster monitor loop that
// checks open positions for exits. Both loops share one ledger and
// stop gracefully, finishing their current cycle.
type PaperBot struct {
	cfg      *config.Config
	provider data.ScoreProvider
	engine   *signal.Engine
	riskMgr  *risk.Manager
	ledger   *paper.Ledger
	logger   *logger.Logger
	notifier notifications.Notifier
	health   *monitoring.HealthChecker

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPaperBot(cfg *config.Config, provider data.ScoreProvider, notifier notifications.Notifier, health *monitoring.HealthChecker) (*PaperBot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, traderrors.NewConfigError("bot", "invalid configuration: %v", err)
	}
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}

	fileLogger, err := logger.NewLogger("paper_trader")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	engineCfg := signal.DefaultConfig()
	engineCfg.WeightTechnical = cfg.Signal.WeightTechnical
	engineCfg.WeightML = cfg.Signal.WeightML
	engineCfg.WeightWhale = cfg.Signal.WeightWhale
	engineCfg.WeightSentiment = cfg.Signal.WeightSentiment
	engineCfg.MinDataQuality = cfg.Signal.MinDataQuality
	engineCfg.MinConfidence = cfg.Signal.MinConfidence
	engineCfg.DecisionTTL = cfg.Signal.DecisionTTL

	ledger := paper.NewLedger(cfg.Trading.InitialCapital, cfg.Trading.FeeRate, cfg.Trading.MaxHoldDuration)
	ledger.SetDailyTradeLimit(cfg.Trading.MaxDailyTrades)
	if err := ledger.Load(cfg.Trading.StateFile); err != nil {
		fileLogger.Close()
		return nil, fmt.Errorf("failed to restore ledger state: %w", err)
	}

	return &PaperBot{
		cfg:      cfg,
		provider: provider,
		engine:   signal.NewEngine(engineCfg),
		riskMgr: risk.NewManager(risk.Limits{
			MinConfidence:  cfg.Signal.MinConfidence,
			MaxRiskScore:   cfg.Risk.MaxRiskScore,
			MaxDailyTrades: cfg.Trading.MaxDailyTrades,
			MaxPositions:   cfg.Trading.MaxPositions,
		}),
		ledger:   ledger,
		logger:   fileLogger,
		notifier: notifier,
		health:   health,
		stopChan: make(chan struct{}),
	}, nil
}

// Ledger exposes the bot's ledger for summaries and persistence.
func (b *PaperBot) Ledger() *paper.Ledger {
	return b.ledger
}

// Start launches the signal and monitor loops.
func (b *PaperBot) Start() error {
	if b.running {
		return fmt.Errorf("bot already running")
	}
	b.running = true

	b.logger.Info("Paper trading started: symbols=%v capital=$%.2f fee=%.4f",
		b.cfg.Trading.Symbols, b.cfg.Trading.InitialCapital, b.cfg.Trading.FeeRate)
	fmt.Printf("📝 Trading logs: %s\n", b.logger.GetLogPath())
	fmt.Printf("🔄 Bot is running... (trading activity logged to file)\n\n")

	b.wg.Add(2)
	go b.signalLoop()
	go b.monitorLoop()
	return nil
}

// Stop signals both loops to finish their current cycle, waits for
// them, persists the ledger and closes the session log.
func (b *PaperBot) Stop() {
	if !b.running {
		return
	}
	b.running = false
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()

	if err := b.ledger.Save(b.cfg.Trading.StateFile); err != nil {
		b.logger.LogError("saving ledger state on shutdown", err)
	}
	b.logger.Info("Paper trading stopped")
	b.logger.Close()
}

func (b *PaperBot) signalLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Trading.SignalInterval)
	defer ticker.Stop()

	b.signalCycle()
	for {
		select {
		case <-ticker.C:
			b.signalCycle()
		case <-b.stopChan:
			b.logger.Info("Stop signal received - ending signal loop")
			return
		}
	}
}

func (b *PaperBot) monitorLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Trading.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.monitorCycle()
		case <-b.stopChan:
			b.logger.Info("Stop signal received - ending monitor loop")
			return
		}
	}
}

// signalCycle evaluates every configured symbol once.
func (b *PaperBot) signalCycle() {
	if halted, reason := b.ledger.Halted(); halted {
		b.logger.Error("Ledger halted, skipping cycle: %v", reason)
		return
	}
	if !b.cfg.WithinTradingHours(time.Now()) {
		return
	}

	var lastPrice float64
	for _, symbol := range b.cfg.Trading.Symbols {
		price, err := b.evaluateSymbol(symbol)
		if err != nil {
			b.handleError("signal cycle "+symbol, err)
			continue
		}
		if price > 0 {
			lastPrice = price
		}
	}

	summary := b.ledger.Summary()
	monitoring.UpdatePortfolio(summary.TotalValue, b.currentRiskScore())
	b.logger.LogPortfolioStatus(summary.TotalValue, summary.Cash,
		summary.UnrealizedPnL, summary.RealizedPnL, len(summary.OpenPositions))
	if b.health != nil {
		b.health.CycleCompleted(lastPrice)
	}

	if err := b.ledger.Save(b.cfg.Trading.StateFile); err != nil {
		b.logger.LogError("persisting ledger state", err)
	}
}

func (b *PaperBot) evaluateSymbol(symbol string) (float64, error) {
	scores, err := b.provider.Scores(symbol)
	if err != nil {
		return 0, err
	}
	price, err := b.provider.Price(symbol)
	if err != nil {
		return 0, err
	}
	stats, err := b.provider.Stats(symbol)
	if err != nil {
		return price, err
	}
	monitoring.UpdatePrice(symbol, price)

	decision, err := b.engine.Generate(types.Instrument{Symbol: symbol, Price: price}, stats, scores)
	if err != nil {
		return price, err
	}
	if decision == nil {
		return price, nil
	}

	monitoring.RecordDecision(symbol, string(decision.Action), decision.Confidence)
	b.logger.Info("Decision %s: %s %s strength=%.2f confidence=%.2f risk=%.2f",
		decision.ID, decision.Action, symbol, decision.Strength, decision.Confidence, decision.RiskScore)

	snap := b.ledger.RiskSnapshot(b.volatilities())
	metrics := b.riskMgr.Assess(snap)
	if err := b.riskMgr.Gate(decision, metrics, snap); err != nil {
		return price, err
	}

	trade, err := b.ledger.ExecuteEntry(withCappedSize(decision, metrics.MaxPositionValue, snap.TotalValue), price)
	if err != nil {
		return price, err
	}

	value := trade.Quantity * trade.Price
	monitoring.RecordTrade(symbol, string(trade.Side), "signal", value)
	b.logger.LogTradeExecution(string(trade.Side), symbol, trade.ID,
		trade.Quantity, trade.Price, trade.Fees, trade.RealizedPnL, string(trade.ExitReason))
	b.notify("success", fmt.Sprintf("%s %s %.6f @ $%.2f", trade.Side, symbol, trade.Quantity, trade.Price))
	return price, nil
}

// withCappedSize applies the risk manager's position-size allowance.
// Decisions are immutable once generated, so a capped sizing yields a
// copy rather than touching the original.
func withCappedSize(d *signal.TradingDecision, maxValue, totalValue float64) *signal.TradingDecision {
	if totalValue <= 0 {
		return d
	}
	maxFraction := maxValue / totalValue
	if d.SizeFraction <= maxFraction {
		return d
	}
	capped := *d
	capped.SizeFraction = maxFraction
	return &capped
}

// monitorCycle marks open positions and closes any that hit their exit
// conditions.
func (b *PaperBot) monitorCycle() {
	prices := make(map[string]float64, len(b.cfg.Trading.Symbols))
	for _, symbol := range b.cfg.Trading.Symbols {
		if price, err := b.provider.Price(symbol); err == nil && price > 0 {
			prices[symbol] = price
		}
	}
	if len(prices) == 0 {
		return
	}

	exits, err := b.ledger.CheckExits(prices)
	if err != nil {
		b.handleError("monitor cycle", err)
		return
	}
	for _, trade := range exits {
		monitoring.RecordTrade(trade.Symbol, string(trade.Side), string(trade.ExitReason), trade.Quantity*trade.Price)
		b.logger.LogTradeExecution(string(trade.Side), trade.Symbol, trade.ID,
			trade.Quantity, trade.Price, trade.Fees, trade.RealizedPnL, string(trade.ExitReason))
		b.notify("info", fmt.Sprintf("closed %s (%s): P&L $%.2f", trade.Symbol, trade.ExitReason, trade.RealizedPnL))
	}
	if len(exits) > 0 {
		if err := b.ledger.Save(b.cfg.Trading.StateFile); err != nil {
			b.logger.LogError("persisting ledger state", err)
		}
	}
}

func (b *PaperBot) currentRiskScore() float64 {
	snap := b.ledger.RiskSnapshot(b.volatilities())
	return b.riskMgr.Assess(snap).OverallRiskScore
}

// volatilities collects current per-symbol volatility for risk
// assessment; symbols with unavailable stats contribute zero.
func (b *PaperBot) volatilities() map[string]float64 {
	vols := make(map[string]float64, len(b.cfg.Trading.Symbols))
	for _, symbol := range b.cfg.Trading.Symbols {
		if stats, err := b.provider.Stats(symbol); err == nil {
			vols[symbol] = stats.Volatility
		}
	}
	return vols
}

// handleError routes an error by severity: expected trading outcomes
// are logged and skipped, invariant violations halt trading and alert
// the operator.
func (b *PaperBot) handleError(context string, err error) {
	var te *traderrors.TradeError
	if errors.As(err, &te) {
		monitoring.RecordError(string(te.Category))
		if te.IsFatal() {
			b.logger.Error("FATAL %s: %v", context, err)
			if b.health != nil {
				b.health.LedgerHalted(err.Error())
			}
			b.notify("error", fmt.Sprintf("ledger halted: %v", err))
			return
		}
		b.logger.Warning("%s: %v", context, err)
		return
	}
	monitoring.RecordError("external")
	b.logger.LogError(context, err)
}

func (b *PaperBot) notify(level, message string) {
	if err := b.notifier.SendAlert(level, message); err != nil {
		b.logger.LogError("sending notification", err)
	}
}
