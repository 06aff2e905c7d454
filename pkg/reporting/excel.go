package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-signal-trader/internal/backtest"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteReportXLSX writes a backtest report workbook with a summary
// sheet, the trade history, and the equity curve.
func (r *DefaultExcelReporter) WriteReportXLSX(report *backtest.PerformanceReport, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, report, headerStyle); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *backtest.PerformanceReport, headerStyle int) error {
	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", headerStyle)

	rows := [][2]interface{}{
		{"Symbol", report.Symbol},
		{"Start", report.Start.Format("2006-01-02 15:04:05")},
		{"End", report.End.Format("2006-01-02 15:04:05")},
		{"Initial Capital", report.InitialCapital},
		{"Final Value", report.FinalValue},
		{"Total Return %", report.TotalReturnPct},
		{"Realized P&L", report.RealizedPnL},
		{"Total Fees", report.TotalFees},
		{"Total Trades", report.TotalTrades},
		{"Wins", report.Wins},
		{"Losses", report.Losses},
		{"Win Rate %", report.WinRate * 100},
		{"Max Drawdown %", report.MaxDrawdown * 100},
		{"Sharpe Ratio", report.SharpeRatio},
		{"Sortino Ratio", finiteOrText(report.SortinoRatio)},
		{"Profit Factor", finiteOrText(report.ProfitFactor)},
		{"Avg Hold", report.AvgHoldDuration.String()},
		{"Best Trade", report.BestTrade},
		{"Worst Trade", report.WorstTrade},
	}
	for i, row := range rows {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row[0])
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row[1])
	}
	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "B", "B", 22)
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, report *backtest.PerformanceReport, headerStyle int) error {
	headers := []string{"Timestamp", "Symbol", "Side", "Quantity", "Price", "Fees", "Realized P&L", "Exit Reason", "Decision ID"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	fx.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for i, t := range report.Trades {
		row := i + 2
		values := []interface{}{
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.Symbol,
			string(t.Side),
			t.Quantity,
			t.Price,
			t.Fees,
			t.RealizedPnL,
			string(t.ExitReason),
			t.DecisionID,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			fx.SetCellValue(sheet, cell, v)
		}
	}
	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "I", "I", 28)
	return nil
}

func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, report *backtest.PerformanceReport, headerStyle int) error {
	fx.SetCellValue(sheet, "A1", "Timestamp")
	fx.SetCellValue(sheet, "B1", "Portfolio Value")
	fx.SetCellStyle(sheet, "A1", "B1", headerStyle)

	for i, p := range report.EquityCurve {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.Timestamp.Format("2006-01-02 15:04:05"))
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Value)
	}
	fx.SetColWidth(sheet, "A", "A", 20)
	return nil
}

func finiteOrText(v float64) interface{} {
	if math.IsInf(v, 1) {
		return "Inf"
	}
	return v
}
