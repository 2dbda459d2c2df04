// Package split decides whether a contiguous block of file lines is safe
// to excise as the "middle" of a fill-in-the-middle example, and performs
// the prefix/middle/suffix split itself.
//
// All line numbers crossing this package's API are 1-indexed absolute
// file line numbers. Line slices are 0-indexed Go slices of raw lines
// with their terminators preserved.
package split

import (
	"strings"

	"fimcorpus/internal/classify"
)

// Span is a contiguous block of 1-indexed file lines, inclusive on both
// ends. Immutable value object.
type Span struct {
	Start int
	End   int
}

// Len returns the number of lines in the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// Lines returns the absolute line numbers covered by the span.
func (s Span) Lines() []int {
	lines := make([]int, 0, s.Len())
	for n := s.Start; n <= s.End; n++ {
		lines = append(lines, n)
	}
	return lines
}

// HasDefinitionWithBody reports whether the line sequence contains at
// least one definition header immediately followed by an indented line.
// This is the admissibility gate for a prefix: without it the model has
// no complete function or class to anchor on.
func HasDefinitionWithBody(lines []string, unit string) bool {
	for i, line := range lines {
		if classify.IsDefinitionHeader(line) {
			if i+1 < len(lines) && classify.IsIndented(lines[i+1], unit) {
				return true
			}
		}
	}
	return false
}

// HeaderDepths returns the indentation depth of every definition header
// in the given line sequence. Used to compute the forbidden depths for
// a candidate middle.
func HeaderDepths(lines []string) []int {
	var depths []int
	for _, line := range lines {
		if classify.IsDefinitionHeader(line) {
			depths = append(depths, classify.IndentDepth(line))
		}
	}
	return depths
}

// AdmissibleMiddle reports whether the span may be excised from the
// file. A span is rejected when any of its lines is a definition header
// or a decorator, when any line sits at one of the forbidden depths, or
// when the span's own first line sits at a forbidden depth. Removing a
// header, or a sibling statement at an enclosing definition's depth,
// would force the model to reconstruct scaffolding it cannot infer.
//
// The first-line depth rule can over-reject deeply nested spans whose
// opening line is an ordinary statement; that is the behavior we ship.
func AdmissibleMiddle(fileLines []string, span Span, forbidden []int) bool {
	if span.Len() == 0 {
		return false
	}
	if span.Start < 1 || span.End > len(fileLines) {
		return false
	}
	startDepth := classify.IndentDepth(fileLines[span.Start-1])
	if containsDepth(forbidden, startDepth) {
		return false
	}
	for n := span.Start; n <= span.End; n++ {
		line := fileLines[n-1]
		if classify.IsDefinitionHeader(line) || classify.IsDecorator(line) {
			return false
		}
		if containsDepth(forbidden, classify.IndentDepth(line)) {
			return false
		}
	}
	return true
}

func containsDepth(depths []int, d int) bool {
	for _, v := range depths {
		if v == d {
			return true
		}
	}
	return false
}

// Split partitions the file into prefix (lines before the span), middle
// (the span itself) and suffix (lines after the span), concatenating raw
// line text so that prefix+middle+suffix reconstructs the original file
// exactly. It returns ok=false when the prefix lacks a definition with
// a body; that final gate is enforced here regardless of what upstream
// validation already checked.
func Split(fileLines []string, span Span, unit string) (prefix, middle, suffix string, ok bool) {
	if span.Start < 1 || span.End > len(fileLines) || span.Len() == 0 {
		return "", "", "", false
	}

	prefixLines := fileLines[:span.Start-1]
	if !HasDefinitionWithBody(prefixLines, unit) {
		return "", "", "", false
	}

	var pre, mid, suf strings.Builder
	for i, line := range fileLines {
		n := i + 1
		switch {
		case n < span.Start:
			pre.WriteString(line)
		case n <= span.End:
			mid.WriteString(line)
		default:
			suf.WriteString(line)
		}
	}
	return pre.String(), mid.String(), suf.String(), true
}
