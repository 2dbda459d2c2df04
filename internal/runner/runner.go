package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"fimcorpus/internal/coverage"
)

// reportFileName is where coverage json leaves its output in each repo.
const reportFileName = "coverage.json"

// Config controls how test suites are run under coverage.
type Config struct {
	// VenvName is the virtual environment directory inside each repo.
	// Repos whose path mentions "airflow" use AirflowVenvName instead.
	VenvName        string
	AirflowVenvName string

	// OmitPatterns are forwarded to coverage json --omit.
	OmitPatterns []string

	// Timeout bounds one repository's full test run.
	Timeout time.Duration
}

// DefaultRunnerConfig returns the conventional venv layout and the omit
// set that keeps generated and cache files out of the report.
func DefaultRunnerConfig() Config {
	return Config{
		VenvName:        "venv",
		AirflowVenvName: "airflow_venv",
		OmitPatterns: []string{
			"*/config-3.py",
			"*/config.py",
			"*/.cache/*",
			"*/tests/*",
			"*/test_*.py",
		},
		Timeout: 30 * time.Minute,
	}
}

// Runner executes test suites with coverage instrumentation.
type Runner struct {
	cfg    Config
	exec   Executor
	logger *zap.Logger
}

// New creates a Runner. A nil executor defaults to the local host
// executor; a nil logger becomes a no-op.
func New(cfg Config, exec Executor, logger *zap.Logger) *Runner {
	if exec == nil {
		exec = NewLocalExecutor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, exec: exec, logger: logger}
}

// VenvPath returns the virtual environment directory expected for the
// repo, or ok=false when none exists on disk.
func (r *Runner) VenvPath(repoPath string) (string, bool) {
	name := r.cfg.VenvName
	if strings.Contains(repoPath, "airflow") && r.cfg.AirflowVenvName != "" {
		name = r.cfg.AirflowVenvName
	}
	path := filepath.Join(repoPath, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, false
	}
	return path, true
}

// coverageScript builds the shell command run inside the repo: activate
// the venv, make sure coverage and pytest are present, run the suite
// and emit the JSON report.
func (r *Runner) coverageScript(venvName string) string {
	omit := strings.Join(r.cfg.OmitPatterns, ",")
	activate := filepath.Join(venvName, "bin", "activate")
	return fmt.Sprintf(
		"source %s && "+
			"pip show coverage || pip install coverage && "+
			"pip show pytest || pip install pytest && "+
			"coverage run -m pytest && "+
			"coverage json --omit=%s --pretty-print -o %s",
		activate, omit, reportFileName)
}

// RunRepo runs the repository's tests under coverage. Repos without a
// virtual environment, or matching an ignore pattern, are skipped with
// a log line rather than an error: one bad repo must not sink the rest.
func (r *Runner) RunRepo(ctx context.Context, repoPath string) error {
	if ShouldIgnore(repoPath, ParseGitignore(repoPath)) {
		r.logger.Info("skipping ignored path", zap.String("repo", repoPath))
		return nil
	}

	venvPath, ok := r.VenvPath(repoPath)
	if !ok {
		r.logger.Warn("no virtual environment found, skipping repo",
			zap.String("repo", repoPath), zap.String("venv", venvPath))
		return nil
	}

	r.logger.Info("running tests with coverage", zap.String("repo", repoPath))
	result, err := r.exec.Execute(ctx, Command{
		Binary:    "bash",
		Arguments: []string{"-c", r.coverageScript(filepath.Base(venvPath))},
		Dir:       repoPath,
		Timeout:   r.cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("coverage run failed for %s: %w", repoPath, err)
	}
	if result.ExitCode != 0 {
		// Failing tests still leave a usable report behind; surface the
		// exit code but let the caller decide.
		r.logger.Warn("test run exited non-zero",
			zap.String("repo", repoPath),
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("duration", result.Duration))
	}
	return nil
}

// RunAll runs every repo in order, collecting per-repo failures instead
// of aborting on the first.
func (r *Runner) RunAll(ctx context.Context, repoPaths []string) error {
	var failed []string
	for _, repoPath := range repoPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.RunRepo(ctx, repoPath); err != nil {
			r.logger.Error("repo coverage run failed",
				zap.String("repo", repoPath), zap.Error(err))
			failed = append(failed, repoPath)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("coverage failed for %d of %d repos: %s",
			len(failed), len(repoPaths), strings.Join(failed, ", "))
	}
	return nil
}

// MergeReports combines each repo's coverage.json into one report with
// repo-prefixed file paths. Repos missing a report are logged and
// skipped, mirroring the per-file error policy of extraction.
func (r *Runner) MergeReports(repoPaths []string) (*coverage.Report, error) {
	combined := coverage.NewReport()
	found := 0

	for _, repoPath := range repoPaths {
		reportPath := filepath.Join(repoPath, reportFileName)
		report, err := coverage.Load(reportPath)
		if err != nil {
			r.logger.Warn("no usable coverage report",
				zap.String("repo", repoPath), zap.Error(err))
			continue
		}
		combined.Merge(repoPath, report)
		found++
	}

	if found == 0 {
		return nil, fmt.Errorf("none of the %d repos produced a coverage report", len(repoPaths))
	}
	return combined, nil
}
