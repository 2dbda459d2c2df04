// Package runner drives test suites under coverage instrumentation
// across a set of Python repositories and merges the per-repo reports
// into one combined coverage document.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	// Binary is the executable to run.
	Binary string

	// Arguments are the command-line arguments.
	Arguments []string

	// Dir is the working directory; empty means the current directory.
	Dir string

	// Env entries (KEY=VALUE) appended to the inherited environment.
	Env []string

	// Timeout bounds the run; zero means the executor's default.
	Timeout time.Duration
}

// Result captures a finished subprocess.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs commands. The local implementation shells out on the
// host; tests substitute a recording fake.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (*Result, error)
}

// LocalExecutor executes commands directly on the host via os/exec.
type LocalExecutor struct {
	// DefaultTimeout applies when a command specifies none.
	DefaultTimeout time.Duration
}

// NewLocalExecutor returns an executor with a 15 minute default
// timeout, enough for pip installation plus a mid-sized test suite.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{DefaultTimeout: 15 * time.Minute}
}

// Execute runs the command. A non-zero exit code is reported in the
// Result, not as an error; errors mean the process could not run.
func (e *LocalExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = e.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(runCtx, cmd.Binary, cmd.Arguments...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(proc.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	started := time.Now()
	err := proc.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", cmd.Binary, err)
	}
	result.ExitCode = 0
	return result, nil
}
