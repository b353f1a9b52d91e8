package parser

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

// ErrNoExtractableData is returned when a document yields no deposits.
// Callers must not score such a document.
var ErrNoExtractableData = errors.New("no extractable revenue data")

// Extract converts a document's lines into financial aggregates.
func Extract(src Source) (*models.FinancialAggregates, error) {
	agg, _, err := extract(src, false)
	return agg, err
}

// ExtractWithTrace is Extract plus a per-line record of how each line was
// classified. The trace is returned even when extraction fails.
func ExtractWithTrace(src Source) (*models.FinancialAggregates, []models.TraceLine, error) {
	return extract(src, true)
}

func extract(src Source, trace bool) (*models.FinancialAggregates, []models.TraceLine, error) {
	if src == nil || len(src.lines()) == 0 {
		return nil, nil, fmt.Errorf("%w: document is empty", ErrNoExtractableData)
	}

	var (
		agg    models.FinancialAggregates
		traces []models.TraceLine
	)
	switch s := src.(type) {
	case CSVSource:
		agg, traces = extractCSV(s.Lines, trace)
	case TextSource:
		agg, traces = extractText(s.Lines, trace)
	default:
		return nil, nil, fmt.Errorf("unsupported source kind %q", src.Kind())
	}

	if !(agg.TotalDeposits > 0) {
		return nil, traces, fmt.Errorf("%w: %d %s line(s) scanned, no deposits found",
			ErrNoExtractableData, len(src.lines()), src.Kind())
	}
	return &agg, traces, nil
}
