package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fimcorpus/internal/corpus"
)

var statsDBPath string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize extraction runs stored in the corpus database",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDBPath, "db", "", "corpus database path (default from config)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath := cfg.Output.DatabasePath
	if statsDBPath != "" {
		dbPath = statsDBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no corpus database configured")
	}

	store, err := corpus.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.Summaries()
	if err != nil {
		return fmt.Errorf("failed to read run summaries: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No runs stored.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %8s  %6s\n", "RUN", "CREATED", "EXAMPLES", "FILES")
	for _, s := range summaries {
		fmt.Printf("%-36s  %-19s  %8d  %6d\n", s.RunID, s.CreatedAt, s.Examples, s.Files)
	}
	return nil
}
