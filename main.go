package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/revenue-scorer/internal/analyzer"
	"github.com/insightdelivered/revenue-scorer/internal/api"
	"github.com/insightdelivered/revenue-scorer/internal/config"
	"github.com/insightdelivered/revenue-scorer/internal/extractor"
	"github.com/insightdelivered/revenue-scorer/internal/kyc"
	"github.com/insightdelivered/revenue-scorer/internal/logger"
	"github.com/insightdelivered/revenue-scorer/internal/oracle"
	"github.com/insightdelivered/revenue-scorer/internal/parser"
	"github.com/insightdelivered/revenue-scorer/internal/writer"
)

func main() {
	// CLI flags
	customersFlag := flag.Int("customers", 0, "Customer count used for scoring (defaults to the configured value, 2)")
	outputFlag := flag.String("output", "", "Write the report as CSV to this path (single input only)")
	headerFlag := flag.Bool("header", true, "Include metadata rows in the CSV report")
	jsonFlag := flag.Bool("json", false, "Print the full report as JSON")
	traceFlag := flag.Bool("trace", false, "Include per-line extraction trace in JSON output")
	serveFlag := flag.Bool("serve", false, "Start the HTTP API instead of analyzing files")
	configFlag := flag.String("config", "", "YAML config file (REVENUE_SCORER_* env vars override it)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Revenue Scorer
by Insight Delivered

Scores a business's revenue statement (CSV, text or PDF) and decides whether
it qualifies for a revenue-backed bond.

Usage:
  revenue-scorer [flags] <statement> [statement2 ...]
  revenue-scorer --serve [--config=config.yaml]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Score a CSV export
  revenue-scorer march.csv

  # Score a PDF with a known customer count, save the report
  revenue-scorer --customers=40 --output=march-score.csv march.pdf

  # Machine-readable output
  revenue-scorer --json --trace march.csv

  # Run the API
  revenue-scorer --serve --config=config.yaml
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("revenue-scorer v%s\n", api.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Config error: %v\n", err)
	}

	if *serveFlag {
		if err := serve(cfg); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("--output can only be used with a single input file\n")
	}

	// Keep stdout for results; logs go to stderr.
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	a := analyzer.New(log, cfg.Scoring.DefaultCustomers)
	opts := analyzer.Options{Customers: *customersFlag, Trace: *traceFlag}

	failed := false
	for _, inputPath := range inputFiles {
		if err := processFile(a, inputPath, opts, *outputFlag, *headerFlag, *jsonFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func processFile(a *analyzer.Analyzer, inputPath string, opts analyzer.Options, outputPath string, includeHeader, asJSON bool) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	src, err := extractor.Load(inputPath, "", data)
	if err != nil {
		return err
	}

	report, err := a.Analyze(context.Background(), src, opts)
	if errors.Is(err, parser.ErrNoExtractableData) {
		return fmt.Errorf("%w (is this a revenue statement with deposits or credits?)", err)
	}
	if err != nil {
		return err
	}

	if outputPath != "" {
		w := &writer.ReportWriter{IncludeHeader: includeHeader}
		if err := w.WriteToFile(outputPath, inputPath, report); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Document string `json:"document"`
			*analyzer.Report
		}{inputPath, report})
	}

	printSummary(inputPath, report, outputPath)
	return nil
}

func printSummary(inputPath string, r *analyzer.Report, outputPath string) {
	agg, score := r.Aggregates, r.Score

	fmt.Printf("Processing: %s\n", inputPath)
	fmt.Printf("  Read %d line(s) as %s\n", r.Lines, r.Source)
	fmt.Printf("  Deposits: %.2f  Withdrawals: %.2f  Balance: %.2f  (%d transactions)\n",
		agg.TotalDeposits, agg.TotalWithdrawals, agg.TotalBalance, agg.TransactionCount)
	fmt.Printf("  Metrics: growth %.0f, revenue %.0f, concentration %.0f, stability %.0f\n",
		score.Metrics.Growth, score.Metrics.Revenue, score.Metrics.Concentration, score.Metrics.Stability)
	fmt.Printf("  Score: %.2f  Tier: %s  APY: %s  Max loan: %.0f\n",
		score.CompositeScore, score.Tier, score.APY, score.MaxLoan)

	if r.Eligibility.Eligible {
		fmt.Println("  Eligible for a revenue bond.")
	} else {
		fmt.Println("  Not eligible:")
		for _, reason := range r.Eligibility.Reasons {
			fmt.Printf("    - %s\n", reason.Message)
		}
	}
	if outputPath != "" {
		fmt.Printf("  Output: %s\n", outputPath)
	}
}

func serve(cfg *config.Config) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	pub, err := openPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	burst := int(math.Max(1, math.Ceil(cfg.Server.AnalyzeQPS)))
	h := &api.Handler{
		Analyzer:  analyzer.New(log, cfg.Scoring.DefaultCustomers),
		KYC:       kyc.NewService(repo, oracle.IsAddress, log),
		Publisher: pub,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.Server.AnalyzeQPS), burst),
		Log:       log,
	}
	app := api.New(h, api.Options{
		BodyLimitMB: cfg.Server.BodyLimitMB,
		AllowOrigin: cfg.Server.AllowOrigin,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("version", api.Version).Msg("server starting")
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (kyc.Repository, func(), error) {
	if cfg.DSN == "" {
		log.Warn().Msg("no database configured, KYC submissions are kept in memory")
		return kyc.NewMemoryRepository(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	repo, err := kyc.OpenPostgres(connectCtx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { repo.Close() }, nil
}

func openPublisher(cfg config.KafkaConfig, log zerolog.Logger) (oracle.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return oracle.NewLogPublisher(log), nil
	}
	return oracle.NewKafkaPublisher(cfg.Brokers, cfg.Topic, log)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
