package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fimcorpus/internal/corpus"
	"fimcorpus/internal/coverage"
)

var (
	extractReportPath string
	extractCSVPath    string
	extractDBPath     string
	extractCount      int
	extractSeed       int64
	extractWorkers    int
	extractDedup      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Sample fill-in-the-middle examples from a coverage report",
	Long: `Extract draws random middle spans from files with executed lines in the
combined coverage report and writes (file_path, prefix, middle, suffix)
examples to CSV and/or a SQLite corpus database.

Collecting fewer examples than requested is a normal outcome when the
retry budget runs out; the shortfall is reported, not treated as an
error.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractReportPath, "report", "", "combined coverage report (default from config)")
	extractCmd.Flags().StringVar(&extractCSVPath, "csv", "", "CSV output path (default from config, empty disables)")
	extractCmd.Flags().StringVar(&extractDBPath, "db", "", "corpus database path (default from config, empty disables)")
	extractCmd.Flags().IntVar(&extractCount, "count", 0, "number of examples to collect (default from config)")
	extractCmd.Flags().Int64Var(&extractSeed, "seed", 0, "random seed, 0 seeds from the clock")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent sampling workers (default from config)")
	extractCmd.Flags().BoolVar(&extractDedup, "dedup", false, "reject repeated middle spans within the run")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags override the config file only when set explicitly.
	if cmd.Flags().Changed("count") {
		cfg.Extract.NumExamples = extractCount
	}
	if cmd.Flags().Changed("seed") {
		cfg.Extract.Seed = extractSeed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Extract.Workers = extractWorkers
	}
	if cmd.Flags().Changed("dedup") {
		cfg.Extract.Deduplicate = extractDedup
	}
	if cmd.Flags().Changed("csv") {
		cfg.Output.CSVPath = extractCSVPath
	}
	if cmd.Flags().Changed("db") {
		cfg.Output.DatabasePath = extractDBPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reportPath := cfg.Coverage.CombinedReport
	if extractReportPath != "" {
		reportPath = extractReportPath
	}
	report, err := coverage.Load(reportPath)
	if err != nil {
		return fmt.Errorf("failed to load coverage report: %w", err)
	}

	seed := cfg.Extract.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	logger.Debug("seeded sampler", zap.Int64("seed", seed))

	opts := corpus.Options{
		NumExamples:   cfg.Extract.NumExamples,
		MaxRetries:    cfg.Extract.MaxRetries,
		MinMiddle:     cfg.Extract.MinMiddle,
		MaxMiddle:     cfg.Extract.MaxMiddle,
		SampleRetries: cfg.Extract.SampleRetries,
		IndentUnit:    cfg.Extract.IndentUnit,
		Workers:       cfg.Extract.Workers,
		Deduplicate:   cfg.Extract.Deduplicate,
	}
	builder, err := corpus.NewBuilder(opts, rng, nil, logger)
	if err != nil {
		return err
	}

	examples, err := builder.Build(cmd.Context(), report)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if len(examples) < opts.NumExamples {
		logger.Warn("retry budget exhausted before reaching target",
			zap.Int("collected", len(examples)),
			zap.Int("requested", opts.NumExamples))
	}

	if cfg.Output.CSVPath != "" {
		if err := writeExamplesCSV(cfg.Output.CSVPath, examples); err != nil {
			return err
		}
		fmt.Printf("Wrote %d examples to %s\n", len(examples), cfg.Output.CSVPath)
	}

	if cfg.Output.DatabasePath != "" {
		store, err := corpus.OpenStore(cfg.Output.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.SaveRun(examples, opts.NumExamples)
		if err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		fmt.Printf("Saved run %s (%d examples) to %s\n", runID, len(examples), cfg.Output.DatabasePath)
	}

	fmt.Printf("Collected %d/%d examples\n", len(examples), opts.NumExamples)
	return nil
}

func writeExamplesCSV(path string, examples []corpus.Example) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV output: %w", err)
	}
	defer f.Close()

	if err := corpus.WriteCSV(f, examples); err != nil {
		return fmt.Errorf("failed to write CSV output: %w", err)
	}
	return nil
}
