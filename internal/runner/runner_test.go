package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeExecutor records commands instead of running them.
type fakeExecutor struct {
	commands []Command
	exitCode int
	err      error
}

func (f *fakeExecutor) Execute(_ context.Context, cmd Command) (*Result, error) {
	f.commands = append(f.commands, cmd)
	if f.err != nil {
		return nil, f.err
	}
	return &Result{ExitCode: f.exitCode}, nil
}

func makeRepo(t *testing.T, venvName string) string {
	t.Helper()
	repo := t.TempDir()
	if venvName != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(repo, venvName, "bin"), 0755))
	}
	return repo
}

func TestVenvPath(t *testing.T) {
	r := New(DefaultRunnerConfig(), &fakeExecutor{}, zap.NewNop())

	repo := makeRepo(t, "venv")
	path, ok := r.VenvPath(repo)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(repo, "venv"), path)

	bare := makeRepo(t, "")
	_, ok = r.VenvPath(bare)
	assert.False(t, ok)
}

func TestVenvPathAirflowSpecialCase(t *testing.T) {
	r := New(DefaultRunnerConfig(), &fakeExecutor{}, zap.NewNop())

	base := t.TempDir()
	repo := filepath.Join(base, "airflow")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "airflow_venv", "bin"), 0755))

	path, ok := r.VenvPath(repo)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(repo, "airflow_venv"), path)
}

func TestRunRepoBuildsCoverageCommand(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(DefaultRunnerConfig(), exec, zap.NewNop())
	repo := makeRepo(t, "venv")

	require.NoError(t, r.RunRepo(context.Background(), repo))
	require.Len(t, exec.commands, 1)

	cmd := exec.commands[0]
	assert.Equal(t, "bash", cmd.Binary)
	assert.Equal(t, repo, cmd.Dir)
	require.Len(t, cmd.Arguments, 2)
	script := cmd.Arguments[1]
	assert.Contains(t, script, "source "+filepath.Join("venv", "bin", "activate"))
	assert.Contains(t, script, "coverage run -m pytest")
	assert.Contains(t, script, "coverage json --omit=")
	assert.Contains(t, script, "*/tests/*")
	assert.Contains(t, script, "-o coverage.json")
}

func TestRunRepoSkipsWithoutVenv(t *testing.T) {
	exec := &fakeExecutor{}
	r := New(DefaultRunnerConfig(), exec, zap.NewNop())
	repo := makeRepo(t, "")

	require.NoError(t, r.RunRepo(context.Background(), repo))
	assert.Empty(t, exec.commands, "no venv means no command is run")
}

func TestRunRepoToleratesFailingTests(t *testing.T) {
	exec := &fakeExecutor{exitCode: 1}
	r := New(DefaultRunnerConfig(), exec, zap.NewNop())
	repo := makeRepo(t, "venv")

	assert.NoError(t, r.RunRepo(context.Background(), repo),
		"non-zero test exit is not a runner error")
}

func TestRunAllCollectsFailures(t *testing.T) {
	exec := &fakeExecutor{err: context.DeadlineExceeded}
	r := New(DefaultRunnerConfig(), exec, zap.NewNop())
	good := makeRepo(t, "")
	bad := makeRepo(t, "venv")

	err := r.RunAll(context.Background(), []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestMergeReports(t *testing.T) {
	repoA := t.TempDir()
	repoB := t.TempDir()

	reportJSON := `{"meta": {"version": "7.3"}, "files": {"app/main.py": {"executed_lines": [1, 2, 5]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(repoA, "coverage.json"), []byte(reportJSON), 0644))

	r := New(DefaultRunnerConfig(), &fakeExecutor{}, zap.NewNop())

	// repoB lacks a report; it is skipped, not fatal.
	combined, err := r.MergeReports([]string{repoA, repoB})
	require.NoError(t, err)
	require.Len(t, combined.Files, 1)

	wantPath := filepath.Join(repoA, "app/main.py")
	assert.Equal(t, []int{1, 2, 5}, combined.Files[wantPath].ExecutedLines)
}

func TestMergeReportsAllMissing(t *testing.T) {
	r := New(DefaultRunnerConfig(), &fakeExecutor{}, zap.NewNop())
	_, err := r.MergeReports([]string{t.TempDir()})
	assert.Error(t, err, "zero reports is an error the caller must see")
}

func TestParseGitignore(t *testing.T) {
	repo := t.TempDir()
	gitignore := "# comment\n\nbuild/\n/abs/path\n"
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".gitignore"), []byte(gitignore), 0644))

	patterns := ParseGitignore(repo)
	assert.Contains(t, patterns, filepath.Join(repo, "build/"))
	assert.Contains(t, patterns, "/abs/path")
	for _, builtin := range []string{"*__pycache__*", "tests", ".*"} {
		assert.Contains(t, patterns, builtin)
	}

	// Missing .gitignore still yields the built-ins.
	bare := ParseGitignore(t.TempDir())
	assert.Contains(t, bare, "*__pycache__*")
}

func TestShouldIgnore(t *testing.T) {
	patterns := []string{"*__pycache__*", "tests", ".*"}

	assert.True(t, ShouldIgnore("/repo/pkg/__pycache__/mod.pyc", patterns))
	assert.True(t, ShouldIgnore("/repo/tests", patterns))
	assert.True(t, ShouldIgnore("/repo/.git", patterns))
	assert.False(t, ShouldIgnore("/repo/pkg/models.py", patterns))

	if ShouldIgnore(strings.Repeat("x", 10), nil) {
		t.Fatal("no patterns means nothing is ignored")
	}
}
