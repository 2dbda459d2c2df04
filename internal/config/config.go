// Package config holds the YAML-backed configuration for the corpus
// miner. Defaults match the original extraction pipeline; a missing
// config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"fimcorpus/internal/classify"
)

// Config holds all fimcorpus configuration.
type Config struct {
	// Extraction settings
	Extract ExtractConfig `yaml:"extract"`

	// Coverage runner settings
	Coverage CoverageConfig `yaml:"coverage"`

	// Output sinks
	Output OutputConfig `yaml:"output"`
}

// ExtractConfig configures example extraction.
type ExtractConfig struct {
	NumExamples   int    `yaml:"num_examples"`
	MaxRetries    int    `yaml:"max_retries"`
	MinMiddle     int    `yaml:"min_middle_lines"`
	MaxMiddle     int    `yaml:"max_middle_lines"`
	SampleRetries int    `yaml:"sample_retries"`
	IndentUnit    string `yaml:"indent_unit"`
	Workers       int    `yaml:"workers"`
	Seed          int64  `yaml:"seed"` // 0 means seed from the clock
	Deduplicate   bool   `yaml:"deduplicate"`
}

// CoverageConfig configures the test-with-coverage runner.
type CoverageConfig struct {
	Repos           []string `yaml:"repos"`
	OmitPatterns    []string `yaml:"omit_patterns"`
	VenvName        string   `yaml:"venv_name"`
	AirflowVenvName string   `yaml:"airflow_venv_name"`
	Timeout         string   `yaml:"timeout"`
	CombinedReport  string   `yaml:"combined_report"`
}

// OutputConfig configures where examples are written.
type OutputConfig struct {
	CSVPath      string `yaml:"csv_path"`
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			NumExamples:   50,
			MaxRetries:    100,
			MinMiddle:     1,
			MaxMiddle:     10,
			SampleRetries: 10,
			IndentUnit:    classify.DefaultIndentUnit,
			Workers:       1,
		},
		Coverage: CoverageConfig{
			OmitPatterns: []string{
				"*/config-3.py",
				"*/config.py",
				"*/.cache/*",
				"*/tests/*",
				"*/test_*.py",
			},
			VenvName:        "venv",
			AirflowVenvName: "airflow_venv",
			Timeout:         "30m",
			CombinedReport:  "data/combined_coverage.json",
		},
		Output: OutputConfig{
			CSVPath:      "data/code_completion_examples.csv",
			DatabasePath: "data/corpus.db",
		},
	}
}

// Load loads configuration from a YAML file, starting from defaults.
// A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment override selected fields.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FIMCORPUS_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Extract.Seed = seed
		}
	}
	if v := os.Getenv("FIMCORPUS_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			c.Extract.Workers = workers
		}
	}
	if v := os.Getenv("FIMCORPUS_DB"); v != "" {
		c.Output.DatabasePath = v
	}
}

// Validate rejects configurations that could never run. These are
// deterministic logic errors caught before any sampling starts.
func (c *Config) Validate() error {
	e := c.Extract
	if e.NumExamples < 0 {
		return fmt.Errorf("extract.num_examples must not be negative, got %d", e.NumExamples)
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("extract.max_retries must not be negative, got %d", e.MaxRetries)
	}
	if e.MinMiddle < 1 {
		return fmt.Errorf("extract.min_middle_lines must be at least 1, got %d", e.MinMiddle)
	}
	if e.MinMiddle > e.MaxMiddle {
		return fmt.Errorf("extract.min_middle_lines %d exceeds max_middle_lines %d", e.MinMiddle, e.MaxMiddle)
	}
	if e.SampleRetries < 1 {
		return fmt.Errorf("extract.sample_retries must be at least 1, got %d", e.SampleRetries)
	}
	if e.Workers < 1 {
		return fmt.Errorf("extract.workers must be at least 1, got %d", e.Workers)
	}
	if _, err := c.CoverageTimeout(); err != nil {
		return err
	}
	return nil
}

// CoverageTimeout parses the coverage timeout string.
func (c *Config) CoverageTimeout() (time.Duration, error) {
	if c.Coverage.Timeout == "" {
		return 30 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Coverage.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid coverage.timeout %q: %w", c.Coverage.Timeout, err)
	}
	return d, nil
}
