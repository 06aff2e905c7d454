package paper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ledgerState is the JSON shape persisted across restarts. Trades are
// append-only; a saved file is only ever replaced wholesale via an
// atomic rename.
type ledgerState struct {
	Cash           float64              `json:"cash"`
	InitialCapital float64              `json:"initial_capital"`
	FeeRate        float64              `json:"fee_rate"`
	Positions      map[string]*Position `json:"positions"`
	Trades         []Trade              `json:"trades"`
	Equity         []EquityPoint        `json:"equity"`
	PeakValue      float64              `json:"peak_value"`
	MaxDrawdown    float64              `json:"max_drawdown"`
	WinCount       int                  `json:"win_count"`
	LossCount      int                  `json:"loss_count"`
	RealizedPnL    float64              `json:"realized_pnl"`
	TotalFees      float64              `json:"total_fees"`
	DailyCount     int                  `json:"daily_count"`
	DailyDate      string               `json:"daily_date"`
}

// Save writes the ledger state to path. The write goes to a uniquely
// named temp file in the same directory followed by a rename, so a
// crash mid-write never corrupts the previous snapshot and concurrent
// saves from the signal and monitor loops cannot collide.
func (l *Ledger) Save(path string) error {
	l.mu.Lock()
	state := ledgerState{
		Cash:           l.cash,
		InitialCapital: l.initialCapital,
		FeeRate:        l.feeRate,
		Positions:      l.positions,
		Trades:         l.trades,
		Equity:         l.equity,
		PeakValue:      l.peakValue,
		MaxDrawdown:    l.maxDrawdown,
		WinCount:       l.winCount,
		LossCount:      l.lossCount,
		RealizedPnL:    l.realizedPnL,
		TotalFees:      l.totalFees,
		DailyCount:     l.dailyCount,
		DailyDate:      l.dailyDate,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal ledger state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write ledger state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace ledger state: %w", err)
	}
	return nil
}

// Load restores ledger state from path. A missing file is not an
// error; the ledger keeps its freshly-constructed state.
func (l *Ledger) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger state: %w", err)
	}

	var state ledgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse ledger state: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = state.Cash
	l.initialCapital = state.InitialCapital
	if state.FeeRate > 0 {
		l.feeRate = state.FeeRate
	}
	if state.Positions != nil {
		l.positions = state.Positions
	}
	l.trades = state.Trades
	l.equity = state.Equity
	l.peakValue = state.PeakValue
	l.maxDrawdown = state.MaxDrawdown
	l.winCount = state.WinCount
	l.lossCount = state.LossCount
	l.realizedPnL = state.RealizedPnL
	l.totalFees = state.TotalFees
	l.dailyCount = state.DailyCount
	l.dailyDate = state.DailyDate
	return nil
}
