package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/revenue-scorer/internal/analyzer"
	"github.com/insightdelivered/revenue-scorer/internal/models"
)

func sampleReport() *analyzer.Report {
	return &analyzer.Report{
		Source: "csv",
		Lines:  4,
		Aggregates: models.FinancialAggregates{
			TotalDeposits:    8000,
			TotalWithdrawals: 1000,
			TotalBalance:     7000,
			TransactionCount: 3,
			CustomerCount:    2,
		},
		Score: models.ScoreResult{
			Metrics:        models.Metrics{Growth: 8750, Revenue: 8750, Concentration: 8750, Stability: 300},
			CompositeScore: 0.66,
			Tier:           models.TierB,
			APY:            "15%",
			MaxLoan:        24000,
			MonthlyRevenue: 8000,
		},
		Eligibility: models.Eligibility{Eligible: true, Reasons: []models.Reason{}},
	}
}

func TestReportWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &ReportWriter{IncludeHeader: true}
	if err := w.Write(&buf, "march.csv", sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	// Check metadata headers
	for _, want := range []string{"# Document,march.csv", "# Source,csv", "# Eligible,true"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected metadata %q", want)
		}
	}

	if !strings.Contains(output, "Metric,Value") {
		t.Error("expected column headers")
	}
	for _, want := range []string{"Total Deposits,8000.00", "Growth,8750", "Score,0.66", "Tier,B", "APY,15%", "Max Loan,24000.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected row %q", want)
		}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 4 metadata lines + 1 header + 14 metrics = 19
	if len(lines) != 19 {
		t.Errorf("expected 19 lines, got %d", len(lines))
	}
}

func TestReportWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &ReportWriter{IncludeHeader: false}
	if err := w.Write(&buf, "march.csv", sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "#") {
		t.Error("should not contain metadata when IncludeHeader is false")
	}
	if !strings.HasPrefix(output, "Metric,Value") {
		t.Errorf("expected output to start with the column header, got %q", output)
	}
}

func TestReportWriter_Reasons(t *testing.T) {
	report := sampleReport()
	report.Eligibility = models.Eligibility{
		Reasons: []models.Reason{
			{Code: models.ReasonLowBalance, Message: "balance must exceed 1000"},
			{Code: models.ReasonLowRevenue, Message: "monthly revenue, at least 500"},
		},
	}

	var buf bytes.Buffer
	if err := (&ReportWriter{}).Write(&buf, "", report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Reason,BALANCE_TOO_LOW: balance must exceed 1000") {
		t.Errorf("missing balance reason: %s", output)
	}
	// Messages with commas are quoted.
	if !strings.Contains(output, `Reason,"REVENUE_TOO_LOW: monthly revenue, at least 500"`) {
		t.Errorf("missing quoted revenue reason: %s", output)
	}
}

func TestReportWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := (&ReportWriter{IncludeHeader: true}).WriteToFile(path, "march.csv", sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Tier,B") {
		t.Errorf("unexpected file content: %s", data)
	}

	if err := (&ReportWriter{}).WriteToFile(filepath.Join(t.TempDir(), "missing", "report.csv"), "", sampleReport()); err == nil {
		t.Error("expected error for unwritable path")
	}
}
