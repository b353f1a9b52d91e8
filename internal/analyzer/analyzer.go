// Package analyzer runs one uploaded document through extraction, scoring
// and the eligibility gate.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/revenue-scorer/internal/logger"
	"github.com/insightdelivered/revenue-scorer/internal/models"
	"github.com/insightdelivered/revenue-scorer/internal/parser"
	"github.com/insightdelivered/revenue-scorer/internal/scoring"
)

// ErrBusy is returned when another document is still being analyzed.
var ErrBusy = errors.New("analysis already in progress")

// Options tune a single analysis.
type Options struct {
	Customers int  // overrides the configured customer count when > 0
	Trace     bool // record how each line was classified
}

// Report is the outcome of analyzing one document. An ineligible document
// still produces a full report.
type Report struct {
	Source      parser.SourceKind          `json:"source"`
	Lines       int                        `json:"lines"`
	Aggregates  models.FinancialAggregates `json:"aggregates"`
	Score       models.ScoreResult         `json:"score"`
	Eligibility models.Eligibility         `json:"eligibility"`
	Trace       []models.TraceLine         `json:"trace,omitempty"`
}

// Loader reads a document into a parser.Source. It runs while the analyzer
// slot is held.
type Loader func(ctx context.Context) (parser.Source, error)

// Analyzer admits one document at a time.
type Analyzer struct {
	log       zerolog.Logger
	customers int
	slot      sync.Mutex
}

// New creates an analyzer. customers <= 0 falls back to
// models.DefaultCustomers.
func New(log zerolog.Logger, customers int) *Analyzer {
	if customers <= 0 {
		customers = models.DefaultCustomers
	}
	return &Analyzer{
		log:       log,
		customers: customers,
	}
}

// Admit takes the analyzer slot, returning ErrBusy while another document
// holds it. release frees the slot; calls after the first do nothing.
func (a *Analyzer) Admit() (release func(), err error) {
	if !a.slot.TryLock() {
		return nil, ErrBusy
	}
	return sync.OnceFunc(a.slot.Unlock), nil
}

// Analyze extracts aggregates from src, scores them and applies the
// eligibility gate. Extraction failures wrap parser.ErrNoExtractableData.
func (a *Analyzer) Analyze(ctx context.Context, src parser.Source, opts Options) (*Report, error) {
	return a.AnalyzeFrom(ctx, func(context.Context) (parser.Source, error) {
		return src, nil
	}, opts)
}

// AnalyzeFrom is Analyze for documents that still need reading. load runs
// inside the slot, so a second upload is refused before it is read.
// Errors from load are returned unchanged.
func (a *Analyzer) AnalyzeFrom(ctx context.Context, load Loader, opts Options) (*Report, error) {
	release, err := a.Admit()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := load(ctx)
	if err != nil {
		return nil, err
	}
	return a.analyze(ctx, src, opts)
}

func (a *Analyzer) analyze(ctx context.Context, src parser.Source, opts Options) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("analyze: %w: no document", parser.ErrNoExtractableData)
	}

	start := time.Now()
	log := logger.FromContext(ctx, a.log).With().
		Str("component", "analyzer").
		Str("source", string(src.Kind())).
		Logger()

	var (
		agg    *models.FinancialAggregates
		traces []models.TraceLine
		err    error
	)
	if opts.Trace {
		agg, traces, err = parser.ExtractWithTrace(src)
	} else {
		agg, err = parser.Extract(src)
	}
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		return nil, fmt.Errorf("analyze: %w", err)
	}
	log.Debug().
		Float64("deposits", agg.TotalDeposits).
		Float64("withdrawals", agg.TotalWithdrawals).
		Float64("balance", agg.TotalBalance).
		Int("transactions", agg.TransactionCount).
		Msg("extracted")

	agg.CustomerCount = a.customers
	if opts.Customers > 0 {
		agg.CustomerCount = opts.Customers
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	score := scoring.Score(*agg)
	elig := scoring.CheckEligibility(*agg, score)

	log.Info().
		Float64("score", score.CompositeScore).
		Str("tier", string(score.Tier)).
		Bool("eligible", elig.Eligible).
		Int("reasons", len(elig.Reasons)).
		Dur("took", time.Since(start)).
		Msg("analysis complete")

	return &Report{
		Source:      src.Kind(),
		Lines:       lineCount(src),
		Aggregates:  *agg,
		Score:       score,
		Eligibility: elig,
		Trace:       traces,
	}, nil
}

func lineCount(src parser.Source) int {
	switch s := src.(type) {
	case parser.CSVSource:
		return len(s.Lines)
	case parser.TextSource:
		return len(s.Lines)
	}
	return 0
}
