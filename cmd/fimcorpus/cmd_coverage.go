package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fimcorpus/internal/runner"
)

var coverageOutPath string

var coverageCmd = &cobra.Command{
	Use:   "coverage [repo...]",
	Short: "Run test suites under coverage and merge the reports",
	Long: `Coverage runs each repository's test suite inside its virtual
environment with coverage instrumentation, then merges the per-repo
JSON reports into one combined report keyed by absolute file path.

Repositories without a virtual environment, and repositories whose
tests fail, are logged and skipped; the merge uses whatever reports
were produced.`,
	RunE: runCoverage,
}

func init() {
	coverageCmd.Flags().StringVar(&coverageOutPath, "out", "", "combined report path (default from config)")
}

func runCoverage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repos := args
	if len(repos) == 0 {
		repos = cfg.Coverage.Repos
	}
	if len(repos) == 0 {
		return fmt.Errorf("no repositories given: pass paths as arguments or set coverage.repos in the config")
	}

	outPath := cfg.Coverage.CombinedReport
	if coverageOutPath != "" {
		outPath = coverageOutPath
	}

	timeout, err := cfg.CoverageTimeout()
	if err != nil {
		return err
	}
	runnerCfg := runner.Config{
		VenvName:        cfg.Coverage.VenvName,
		AirflowVenvName: cfg.Coverage.AirflowVenvName,
		OmitPatterns:    cfg.Coverage.OmitPatterns,
		Timeout:         timeout,
	}
	r := runner.New(runnerCfg, nil, logger)

	// Failed repos do not abort the merge; partial coverage is still
	// useful for extraction.
	if err := r.RunAll(cmd.Context(), repos); err != nil {
		logger.Warn("some repositories failed to produce coverage", zap.Error(err))
	}

	combined, err := r.MergeReports(repos)
	if err != nil {
		return fmt.Errorf("failed to merge coverage reports: %w", err)
	}
	if err := combined.Save(outPath); err != nil {
		return fmt.Errorf("failed to save combined report: %w", err)
	}

	fmt.Printf("Merged coverage for %d files to %s\n", len(combined.Paths()), outPath)
	return nil
}
