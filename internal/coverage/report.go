// Package coverage consumes coverage.py-style JSON reports: a "files"
// map keyed by file path, each entry carrying the line numbers that
// executed during the test run. The report format itself is produced by
// external tooling; this package only reads, normalizes and merges it.
package coverage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileCoverage is the per-file slice of a coverage report.
type FileCoverage struct {
	// ExecutedLines are 1-indexed line numbers that ran at least once.
	// After Normalize they are ascending and deduplicated.
	ExecutedLines []int `json:"executed_lines"`

	// MissingLines are reported by coverage.py but unused here; kept so
	// reports round-trip through Merge and Save.
	MissingLines []int `json:"missing_lines,omitempty"`
}

// Report mirrors the combined coverage JSON document.
type Report struct {
	Meta  map[string]any          `json:"meta"`
	Files map[string]FileCoverage `json:"files"`
}

// NewReport returns an empty report ready for merging.
func NewReport() *Report {
	return &Report{
		Meta:  make(map[string]any),
		Files: make(map[string]FileCoverage),
	}
}

// Load reads and normalizes a coverage report from disk.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coverage report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse coverage report %s: %w", path, err)
	}
	report.Normalize()
	return &report, nil
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal coverage report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write coverage report: %w", err)
	}
	return nil
}

// Normalize sorts and deduplicates every file's executed-line list.
// Sampling assumes ascending, unique line numbers.
func (r *Report) Normalize() {
	if r.Files == nil {
		r.Files = make(map[string]FileCoverage)
	}
	for path, fc := range r.Files {
		fc.ExecutedLines = dedupeSorted(fc.ExecutedLines)
		r.Files[path] = fc
	}
}

// Merge folds src into r, prefixing every file key with repoPath so
// that entries from different repositories cannot collide. Meta keys
// from later reports win, matching the original combine behavior.
func (r *Report) Merge(repoPath string, src *Report) {
	for k, v := range src.Meta {
		r.Meta[k] = v
	}
	for path, fc := range src.Files {
		combined := filepath.Join(repoPath, path)
		fc.ExecutedLines = dedupeSorted(fc.ExecutedLines)
		r.Files[combined] = fc
	}
}

// Paths returns all file paths in deterministic (sorted) order.
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for path := range r.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// NonEmptyPaths returns, in sorted order, the paths whose executed-line
// list is non-empty. These are the only candidates worth sampling.
func (r *Report) NonEmptyPaths() []string {
	paths := make([]string, 0, len(r.Files))
	for path, fc := range r.Files {
		if len(fc.ExecutedLines) > 0 {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func dedupeSorted(lines []int) []int {
	if len(lines) == 0 {
		return lines
	}
	out := make([]int, len(lines))
	copy(out, lines)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
