package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/revenue-scorer/internal/analyzer"
)

// ReportWriter writes analysis reports in CSV format.
type ReportWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the report to a CSV file at the given path.
func (w *ReportWriter) WriteToFile(path, document string, report *analyzer.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, document, report)
}

// Write writes the report as Metric,Value rows to the given writer.
func (w *ReportWriter) Write(out io.Writer, document string, report *analyzer.Report) error {
	writer := csv.NewWriter(out)

	// Metadata as comment rows
	if w.IncludeHeader {
		if document != "" {
			writer.Write([]string{"# Document", document})
		}
		writer.Write([]string{"# Source", string(report.Source)})
		writer.Write([]string{"# Lines", strconv.Itoa(report.Lines)})
		writer.Write([]string{"# Eligible", strconv.FormatBool(report.Eligibility.Eligible)})
	}

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	agg := report.Aggregates
	score := report.Score
	rows := [][]string{
		{"Total Deposits", formatAmount(agg.TotalDeposits)},
		{"Total Withdrawals", formatAmount(agg.TotalWithdrawals)},
		{"Total Balance", formatAmount(agg.TotalBalance)},
		{"Transactions", strconv.Itoa(agg.TransactionCount)},
		{"Customers", strconv.Itoa(agg.CustomerCount)},
		{"Growth", formatMetric(score.Metrics.Growth)},
		{"Revenue", formatMetric(score.Metrics.Revenue)},
		{"Concentration", formatMetric(score.Metrics.Concentration)},
		{"Stability", formatMetric(score.Metrics.Stability)},
		{"Score", strconv.FormatFloat(score.CompositeScore, 'f', 2, 64)},
		{"Tier", string(score.Tier)},
		{"APY", score.APY},
		{"Max Loan", formatAmount(score.MaxLoan)},
		{"Monthly Revenue", formatAmount(score.MonthlyRevenue)},
	}
	for _, reason := range report.Eligibility.Reasons {
		rows = append(rows, []string{"Reason", string(reason.Code) + ": " + reason.Message})
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
