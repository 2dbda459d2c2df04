// Package corpus assembles fill-in-the-middle training examples from a
// coverage report: it picks covered files, delegates span selection to
// the sampler, splits each file into prefix/middle/suffix, and writes
// the accepted examples to CSV or SQLite.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Example is one fill-in-the-middle training record. Prefix + Middle +
// Suffix reconstructs the source file exactly. Immutable once built.
type Example struct {
	FilePath string `json:"file_path"`
	Prefix   string `json:"prefix"`
	Middle   string `json:"middle"`
	Suffix   string `json:"suffix"`

	// StartLine and EndLine are the 1-indexed bounds of the middle,
	// used for deduplication and bookkeeping; they are not part of the
	// CSV surface.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Key identifies the exact middle excision for deduplication.
func (e Example) Key() string {
	return fmt.Sprintf("%s:%d:%d", e.FilePath, e.StartLine, e.EndLine)
}

// csvHeader matches the column set the downstream generation tooling
// expects.
var csvHeader = []string{"file_path", "prefix", "middle", "suffix"}

// WriteCSV serializes examples with the standard four-column header.
func WriteCSV(w io.Writer, examples []Example) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, ex := range examples {
		record := []string{ex.FilePath, ex.Prefix, ex.Middle, ex.Suffix}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write example %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
