// fimcorpus mines fill-in-the-middle training examples from
// test-exercised Python code: run test suites under coverage, merge the
// reports, and excise admissible middle spans from covered files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fimcorpus/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger, initialized before any subcommand runs
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fimcorpus",
	Short: "fimcorpus - fill-in-the-middle corpus miner",
	Long: `fimcorpus builds fill-in-the-middle (FIM) training examples from real,
test-exercised source files.

Pipeline:
  1. coverage: run each repo's tests under coverage.py and merge the
     per-repo JSON reports into one combined report
  2. extract:  sample admissible middle spans from covered files and
     emit (file_path, prefix, middle, suffix) examples
  3. stats:    inspect a corpus database built by extract`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads and validates the configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fimcorpus.yaml", "path to config file")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
