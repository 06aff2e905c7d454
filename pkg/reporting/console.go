package reporting

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-signal-trader/internal/backtest"
	"github.com/ducminhle1904/crypto-signal-trader/internal/paper"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputReport prints a backtest performance report to the console.
func (r *DefaultConsoleReporter) OutputReport(report *backtest.PerformanceReport) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("📊 BACKTEST RESULTS — %s (%s → %s)\n",
		report.Symbol,
		report.Start.Format("2006-01-02"),
		report.End.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 50))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"💰 Initial Capital", fmt.Sprintf("$%.2f", report.InitialCapital)},
		{"💰 Final Value", fmt.Sprintf("$%.2f", report.FinalValue)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", report.TotalReturnPct)},
		{"💹 Realized P&L", fmt.Sprintf("$%.2f", report.RealizedPnL)},
		{"💵 Total Fees", fmt.Sprintf("$%.2f", report.TotalFees)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", report.SharpeRatio)},
		{"📊 Sortino Ratio", formatRatio(report.SortinoRatio)},
		{"💹 Profit Factor", formatRatio(report.ProfitFactor)},
		{"🔄 Total Trades", fmt.Sprintf("%d", report.TotalTrades)},
		{"✅ Wins", fmt.Sprintf("%d (%.1f%%)", report.Wins, report.WinRate*100)},
		{"❌ Losses", fmt.Sprintf("%d", report.Losses)},
		{"⏱️ Avg Hold", report.AvgHoldDuration.Round(time.Second).String()},
		{"🏆 Best Trade", fmt.Sprintf("$%.2f", report.BestTrade)},
		{"💥 Worst Trade", fmt.Sprintf("$%.2f", report.WorstTrade)},
	})
	t.Render()
}

// OutputTrades prints the trade history table.
func (r *DefaultConsoleReporter) OutputTrades(trades []paper.Trade) {
	if len(trades) == 0 {
		fmt.Println("No trades executed.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Symbol", "Side", "Qty", "Price", "Fees", "P&L", "Exit Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "P&L", Align: text.AlignRight},
		{Name: "Price", Align: text.AlignRight},
	})
	for _, tr := range trades {
		pnl := ""
		if tr.ExitReason != "" {
			pnl = fmt.Sprintf("%.2f", tr.RealizedPnL)
		}
		t.AppendRow(table.Row{
			tr.Timestamp.Format("2006-01-02 15:04"),
			tr.Symbol,
			strings.ToUpper(string(tr.Side)),
			fmt.Sprintf("%.6f", tr.Quantity),
			fmt.Sprintf("%.2f", tr.Price),
			fmt.Sprintf("%.4f", tr.Fees),
			pnl,
			string(tr.ExitReason),
		})
	}
	t.Render()
}

// OutputSummary prints the live portfolio summary.
func (r *DefaultConsoleReporter) OutputSummary(summary paper.PortfolioSummary) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("💼 PORTFOLIO SUMMARY")
	fmt.Println(strings.Repeat("=", 50))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"💰 Total Value", fmt.Sprintf("$%.2f", summary.TotalValue)},
		{"💵 Cash", fmt.Sprintf("$%.2f", summary.Cash)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", summary.TotalReturnPct)},
		{"💹 Unrealized P&L", fmt.Sprintf("$%.2f", summary.UnrealizedPnL)},
		{"💹 Realized P&L", fmt.Sprintf("$%.2f", summary.RealizedPnL)},
		{"🔄 Trades", fmt.Sprintf("%d", summary.TradeCount)},
	})
	t.Render()

	if len(summary.OpenPositions) > 0 {
		fmt.Println("\nOpen positions:")
		pt := table.NewWriter()
		pt.SetOutputMirror(os.Stdout)
		pt.SetStyle(table.StyleLight)
		pt.AppendHeader(table.Row{"Symbol", "Qty", "Entry", "Mark", "Stop", "Target", "Unrealized"})
		for _, p := range summary.OpenPositions {
			pt.AppendRow(table.Row{
				p.Symbol,
				fmt.Sprintf("%.6f", p.Quantity),
				fmt.Sprintf("%.2f", p.EntryPrice),
				fmt.Sprintf("%.2f", p.MarkPrice),
				fmt.Sprintf("%.2f", p.StopLoss),
				fmt.Sprintf("%.2f", p.TakeProfit),
				fmt.Sprintf("%.2f", p.UnrealizedPnL),
			})
		}
		pt.Render()
	}
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}

// Package-level convenience function
func OutputConsole(report *backtest.PerformanceReport) {
	NewDefaultConsoleReporter().OutputReport(report)
}
