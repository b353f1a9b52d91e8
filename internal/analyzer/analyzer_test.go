package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/revenue-scorer/internal/logger"
	"github.com/insightdelivered/revenue-scorer/internal/models"
	"github.com/insightdelivered/revenue-scorer/internal/parser"
)

func csvStatement() parser.Source {
	return parser.CSVSource{Lines: []string{
		"Date,Description,Credit,Debit,Balance",
		"2024-01-01,Sale,5000,,5000",
		"2024-01-02,Refund,,1000,4000",
		"2024-01-03,Sale,3000,,7000",
	}}
}

func TestAnalyze(t *testing.T) {
	a := New(zerolog.Nop(), 0)

	report, err := a.Analyze(context.Background(), csvStatement(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Source != parser.KindCSV {
		t.Errorf("source: got %q", report.Source)
	}
	if report.Lines != 4 {
		t.Errorf("lines: got %d, want 4", report.Lines)
	}
	agg := report.Aggregates
	if agg.TotalDeposits != 8000 || agg.TotalWithdrawals != 1000 || agg.TotalBalance != 7000 {
		t.Errorf("aggregates: got %+v", agg)
	}
	if agg.CustomerCount != models.DefaultCustomers {
		t.Errorf("customers: got %d, want %d", agg.CustomerCount, models.DefaultCustomers)
	}
	if report.Score.Tier != models.TierB {
		t.Errorf("tier: got %q, want B", report.Score.Tier)
	}
	if !report.Eligibility.Eligible {
		t.Errorf("expected eligible, reasons: %+v", report.Eligibility.Reasons)
	}
	if report.Trace != nil {
		t.Error("trace should be empty unless requested")
	}
}

func TestAnalyzeOptions(t *testing.T) {
	a := New(zerolog.Nop(), 7)

	report, err := a.Analyze(context.Background(), csvStatement(), Options{Trace: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Aggregates.CustomerCount != 7 {
		t.Errorf("configured customers: got %d, want 7", report.Aggregates.CustomerCount)
	}
	if len(report.Trace) != 4 || report.Trace[0].Result != "header" {
		t.Errorf("trace: got %+v", report.Trace)
	}

	report, err = a.Analyze(context.Background(), csvStatement(), Options{Customers: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Aggregates.CustomerCount != 40 {
		t.Errorf("override customers: got %d, want 40", report.Aggregates.CustomerCount)
	}
}

func TestAnalyzeIneligibleIsNotError(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	src := parser.TextSource{Lines: []string{"Deposit 300", "Balance 50"}}

	report, err := a.Analyze(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Eligibility.Eligible {
		t.Error("expected ineligible report")
	}
	if len(report.Eligibility.Reasons) == 0 {
		t.Error("expected reasons")
	}
}

func TestAnalyzeNoData(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	tests := []struct {
		name string
		src  parser.Source
	}{
		{"nil", nil},
		{"empty", parser.TextSource{}},
		{"no deposits", parser.TextSource{Lines: []string{"Withdrawal 100", "Balance 0"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := a.Analyze(context.Background(), tt.src, Options{})
			if !errors.Is(err, parser.ErrNoExtractableData) {
				t.Errorf("got %v, want ErrNoExtractableData", err)
			}
			if report != nil {
				t.Error("expected nil report")
			}
		})
	}
}

func TestAnalyzeBusy(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	a.slot.Lock()

	_, err := a.Analyze(context.Background(), csvStatement(), Options{})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}

	a.slot.Unlock()
	if _, err := a.Analyze(context.Background(), csvStatement(), Options{}); err != nil {
		t.Errorf("slot should be free again: %v", err)
	}
}

func TestAdmit(t *testing.T) {
	a := New(zerolog.Nop(), 0)

	release, err := a.Admit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Admit(); !errors.Is(err, ErrBusy) {
		t.Errorf("second admit: got %v, want ErrBusy", err)
	}

	release()
	release()
	again, err := a.Admit()
	if err != nil {
		t.Fatalf("slot should be free after release: %v", err)
	}
	again()
}

func TestAnalyzeFrom(t *testing.T) {
	a := New(zerolog.Nop(), 0)

	loaded := false
	report, err := a.AnalyzeFrom(context.Background(), func(context.Context) (parser.Source, error) {
		loaded = true
		if _, err := a.Admit(); !errors.Is(err, ErrBusy) {
			t.Errorf("slot should be held while loading, got %v", err)
		}
		return csvStatement(), nil
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded || report.Score.Tier != models.TierB {
		t.Errorf("loaded=%v report=%+v", loaded, report)
	}
}

func TestAnalyzeFromBusySkipsLoad(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	release, err := a.Admit()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = a.AnalyzeFrom(context.Background(), func(context.Context) (parser.Source, error) {
		t.Error("loader must not run while another document holds the slot")
		return nil, nil
	}, Options{})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}
}

func TestAnalyzeFromLoadError(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	boom := errors.New("unreadable upload")

	_, err := a.AnalyzeFrom(context.Background(), func(context.Context) (parser.Source, error) {
		return nil, boom
	}, Options{})
	if err != boom {
		t.Errorf("got %v, want loader error unchanged", err)
	}
	if _, err := a.Analyze(context.Background(), csvStatement(), Options{}); err != nil {
		t.Errorf("slot should be released after a load error: %v", err)
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	a := New(zerolog.Nop(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, csvStatement(), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAnalyzeLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	a := New(logger.NewWithWriter(buf), 0)

	if _, err := a.Analyze(context.Background(), csvStatement(), Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"component":"analyzer"`, `"source":"csv"`, `"tier":"B"`, "analysis complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestAnalyzeUsesContextLogger(t *testing.T) {
	fallback := &bytes.Buffer{}
	scoped := &bytes.Buffer{}
	a := New(logger.NewWithWriter(fallback), 0)

	reqLog := logger.NewWithWriter(scoped).With().Str("request_id", "req-42").Logger()
	ctx := logger.WithContext(context.Background(), reqLog)
	if _, err := a.Analyze(ctx, csvStatement(), Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := scoped.String()
	for _, want := range []string{`"request_id":"req-42"`, `"component":"analyzer"`, "analysis complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("request log missing %s: %s", want, out)
		}
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback logger should be unused, got: %s", fallback.String())
	}
}
