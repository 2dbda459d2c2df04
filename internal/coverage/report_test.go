package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadNormalizes(t *testing.T) {
	raw := `{
		"meta": {"version": "7.3.2"},
		"files": {
			"pkg/a.py": {"executed_lines": [9, 3, 3, 1]},
			"pkg/b.py": {"executed_lines": []}
		}
	}`
	path := filepath.Join(t.TempDir(), "coverage.json")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	report, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 9}, report.Files["pkg/a.py"].ExecutedLines); diff != "" {
		t.Fatalf("executed lines not normalized (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pkg/a.py"}, report.NonEmptyPaths()); diff != "" {
		t.Fatalf("NonEmptyPaths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pkg/a.py", "pkg/b.py"}, report.Paths()); diff != "" {
		t.Fatalf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file must error")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed JSON must error")
	}
}

func TestMergePrefixesPaths(t *testing.T) {
	combined := NewReport()

	first := &Report{
		Meta:  map[string]any{"version": "7.1"},
		Files: map[string]FileCoverage{"app/models.py": {ExecutedLines: []int{2, 1}}},
	}
	second := &Report{
		Meta:  map[string]any{"version": "7.3", "branch": true},
		Files: map[string]FileCoverage{"app/models.py": {ExecutedLines: []int{5}}},
	}

	combined.Merge("../repo_a", first)
	combined.Merge("../repo_b", second)

	wantPaths := []string{
		filepath.Join("../repo_a", "app/models.py"),
		filepath.Join("../repo_b", "app/models.py"),
	}
	if diff := cmp.Diff(wantPaths, combined.Paths()); diff != "" {
		t.Fatalf("merged paths mismatch (-want +got):\n%s", diff)
	}
	if got := combined.Files[wantPaths[0]].ExecutedLines; len(got) != 2 || got[0] != 1 {
		t.Fatalf("merge must normalize executed lines, got %v", got)
	}
	// Later meta wins.
	if combined.Meta["version"] != "7.3" {
		t.Fatalf("meta not merged, got %v", combined.Meta)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	report := NewReport()
	report.Meta["version"] = "7.3"
	report.Files["x.py"] = FileCoverage{ExecutedLines: []int{1, 2}, MissingLines: []int{3}}

	path := filepath.Join(t.TempDir(), "combined_coverage.json")
	if err := report.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(report.Files, loaded.Files); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
