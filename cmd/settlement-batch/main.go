package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/route-settlement/internal/async"
	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/diagnostics"
	"github.com/joseph-ayodele/route-settlement/internal/document"
	"github.com/joseph-ayodele/route-settlement/internal/export"
	"github.com/joseph-ayodele/route-settlement/internal/metrics"
	"github.com/joseph-ayodele/route-settlement/internal/pipeline"
	repo "github.com/joseph-ayodele/route-settlement/internal/repository"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		configPath    = flag.String("config", "", "YAML config file (default config.yaml when present)")
		pdfsFolder    = flag.String("pdfs_folder", "", "folder with the delivery-run PDFs")
		typeSheet     = flag.String("type_sheet", "", "roster spreadsheet (XLSX)")
		outputExcel   = flag.String("output_excel", "", "output workbook path")
		errorReport   = flag.String("error_report", "", "diagnostics report path")
		pdfSummary    = flag.String("pdf-summary", "", "optional PDF summary path")
		archiveDSN    = flag.String("archive", "", "optional archive DSN (postgres:// URL or SQLite file)")
		metricsFile   = flag.String("metrics-textfile", "", "optional Prometheus textfile path")
		deliveryValue = flag.String("delivery_value", "", "value paid per delivery")
		dailyBonus    = flag.String("daily_bonus", "", "bonus paid per bonus day")
		pdfBackend    = flag.String("pdf-backend", "", "text extraction backend: auto, pdftotext or native")
		keepBlank     = flag.Bool("keep-blank-lines", true, "keep blank text lines; a blank line ends the bonus section")
		workers       = flag.Int("workers", 0, "documents extracted in parallel")
		debug         = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Setup logger
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	runID := uuid.New()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With("run_id", runID.String())
	slog.SetDefault(logger)

	path, required := *configPath, true
	if path == "" {
		path, required = common.DefaultConfigPath, false
	}
	cfg, err := common.LoadConfig(path, required)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags win over file and environment
	setIf(&cfg.Paths.PDFsFolder, *pdfsFolder)
	setIf(&cfg.Paths.RosterSheet, *typeSheet)
	setIf(&cfg.Paths.OutputExcel, *outputExcel)
	setIf(&cfg.Paths.ErrorReport, *errorReport)
	setIf(&cfg.Paths.PDFSummary, *pdfSummary)
	setIf(&cfg.Paths.ArchiveDSN, *archiveDSN)
	setIf(&cfg.Paths.MetricsTextfile, *metricsFile)
	setIf(&cfg.Document.Backend, *pdfBackend)
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "keep-blank-lines" {
			cfg.Document.KeepBlankLines = *keepBlank
		}
	})
	for flagName, v := range map[string]struct {
		raw string
		dst *decimal.Decimal
	}{
		"delivery_value": {*deliveryValue, &cfg.Values.DeliveryValue},
		"daily_bonus":    {*dailyBonus, &cfg.Values.DailyBonus},
	} {
		if v.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(v.raw)
		if err != nil {
			printError("Error: invalid --%s value %q: %v\n", flagName, v.raw, err)
			os.Exit(1)
		}
		*v.dst = d
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, cfg, runID, logger)
	if err != nil {
		logger.Error("settlement run aborted", "error", err)
		stop()
		os.Exit(1)
	}

	fmt.Printf("Settlement complete!\n")
	fmt.Printf("- Documents: %d (unreadable: %d)\n", summary.Stats.Documents, summary.Stats.Unreadable)
	fmt.Printf("- Drivers settled: %d (skipped: %d)\n", summary.Stats.Settled, summary.Stats.Unmatched+summary.Stats.Nameless)
	fmt.Printf("- Diagnostics: %d\n", summary.Diagnostics)
	fmt.Printf("- Output: %s\n", cfg.Paths.OutputExcel)
}

type runSummary struct {
	Stats       pipeline.Stats
	Diagnostics int
}

// run executes one batch. Any returned error is fatal; recoverable problems
// only land in the diagnostics report.
func run(ctx context.Context, cfg *common.Config, runID uuid.UUID, logger *slog.Logger) (runSummary, error) {
	started := time.Now()
	diag := diagnostics.New(logger)

	// Roster
	ros, err := roster.LoadXLSX(cfg.Paths.RosterSheet, diag, logger)
	if err != nil {
		return runSummary{}, err
	}

	// Documents
	paths, dirStats, err := document.Discover(cfg.Paths.PDFsFolder)
	if err != nil {
		return runSummary{}, common.NewAppError(common.CodeInput, "cannot list documents", err)
	}
	logger.Info("documents discovered",
		"folder", cfg.Paths.PDFsFolder,
		"scanned", dirStats.Scanned,
		"matched", dirStats.Matched,
		"skipped", dirStats.Skipped,
	)

	var m *metrics.Metrics
	if cfg.Paths.MetricsTextfile != "" {
		m = metrics.New()
	}

	// Setup processor
	source, err := document.NewSource(document.Config{
		Backend:        cfg.Document.Backend,
		Pdftotext:      cfg.Document.Pdftotext,
		Timeout:        cfg.Document.Timeout,
		KeepBlankLines: cfg.Document.KeepBlankLines,
	}, logger)
	if err != nil {
		return runSummary{}, common.NewAppError(common.CodeConfig, "cannot set up document source", err)
	}
	pool := async.NewPool(logger, async.WithWorkers(cfg.Workers))
	processor := pipeline.NewProcessor(logger, source, ros, settlement.Params{
		UnitDeliveryValue: cfg.Values.DeliveryValue,
		DailyBonus:        cfg.Values.DailyBonus,
	}, pipeline.WithPool(pool), pipeline.WithMetrics(m))

	res, err := processor.Run(ctx, paths)
	if err != nil {
		return runSummary{}, common.NewAppError(common.CodeInput, "document processing interrupted", err)
	}
	diag.Merge(res.Diagnostics)

	// Output workbook
	exporter := export.NewService(logger)
	if err := exporter.WriteXLSX(cfg.Paths.OutputExcel, res.Settlements); err != nil {
		return runSummary{}, common.NewAppError(common.CodeOutput, "cannot write output workbook", err)
	}
	logger.Info("output workbook written", "output", cfg.Paths.OutputExcel, "drivers", len(res.Settlements))

	if cfg.Paths.PDFSummary != "" {
		if err := exporter.WriteSummaryPDF(cfg.Paths.PDFSummary, res.Settlements, time.Now()); err != nil {
			diag.Errorf("Could not write PDF summary %s: %v", cfg.Paths.PDFSummary, err)
		}
	}

	if cfg.Paths.ArchiveDSN != "" {
		record := repo.RunRecord{
			ID:         runID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Documents:  res.Stats.Documents,
			Drivers:    len(res.Settlements),
			Warnings:   diag.Count(diagnostics.LevelWarning),
			Errors:     diag.Count(diagnostics.LevelError),
			OutputPath: cfg.Paths.OutputExcel,
		}
		if err := archiveRun(ctx, cfg.Paths.ArchiveDSN, record, res.Settlements, logger); err != nil {
			diag.Errorf("Could not archive run %s: %v", runID, err)
		}
	}

	if m != nil {
		m.AddDiagnostics(string(diagnostics.LevelWarning), diag.Count(diagnostics.LevelWarning))
		m.AddDiagnostics(string(diagnostics.LevelError), diag.Count(diagnostics.LevelError))
		m.MarkRun(time.Now())
		if err := m.WriteTextfile(cfg.Paths.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", "error", err)
		}
	}

	if diag.Len() > 0 && cfg.Paths.ErrorReport != "" {
		if err := diag.WriteReport(cfg.Paths.ErrorReport); err != nil {
			logger.Error("failed to write diagnostics report", "error", err)
		} else {
			logger.Info("diagnostics report written", "path", cfg.Paths.ErrorReport, "entries", diag.Len())
		}
	}

	return runSummary{Stats: res.Stats, Diagnostics: diag.Len()}, nil
}

func archiveRun(ctx context.Context, dsn string, record repo.RunRecord, settlements []settlement.Settlement, logger *slog.Logger) error {
	db, err := repo.Open(ctx, repo.Config{DSN: dsn, MaxConns: 4, DialTimeout: 10 * time.Second}, logger)
	if err != nil {
		return common.WrapError(err, "open archive")
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		return errors.Join(common.ErrDatabase, err)
	}
	if err := db.Migrate(ctx); err != nil {
		return common.WrapError(err, "migrate archive")
	}
	return common.WrapError(repo.NewRunRepository(db, logger).SaveRun(ctx, record, settlements), "save run")
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
