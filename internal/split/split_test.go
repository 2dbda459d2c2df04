package split

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fimcorpus/internal/classify"
)

const unit = classify.DefaultIndentUnit

// linesOf splits source into lines that keep their terminators, the
// same shape the corpus reader produces.
func linesOf(src string) []string {
	var lines []string
	for len(src) > 0 {
		i := strings.IndexByte(src, '\n')
		if i < 0 {
			lines = append(lines, src)
			break
		}
		lines = append(lines, src[:i+1])
		src = src[i+1:]
	}
	return lines
}

var sample = linesOf(
	"import os\n" +
		"\n" +
		"def f():\n" +
		"    x = 1\n" +
		"    y = 2\n" +
		"    return x + y\n" +
		"\n" +
		"print(f())\n")

func TestSpan(t *testing.T) {
	s := Span{Start: 4, End: 6}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if diff := cmp.Diff([]int{4, 5, 6}, s.Lines()); diff != "" {
		t.Fatalf("Lines mismatch (-want +got):\n%s", diff)
	}
	if (Span{Start: 5, End: 4}).Len() != 0 {
		t.Fatal("inverted span should be empty")
	}
}

func TestHasDefinitionWithBody(t *testing.T) {
	if !HasDefinitionWithBody(sample, unit) {
		t.Fatal("sample has def f() with an indented body")
	}
	if HasDefinitionWithBody(linesOf("x = 1\ny = 2\n"), unit) {
		t.Fatal("no definitions present")
	}
	// Header with no body line after it.
	if HasDefinitionWithBody(linesOf("def f():\n"), unit) {
		t.Fatal("header at EOF has no body")
	}
	// Header followed by an unindented line.
	if HasDefinitionWithBody(linesOf("def f():\npass\n"), unit) {
		t.Fatal("body must be indented")
	}
}

func TestHeaderDepths(t *testing.T) {
	lines := linesOf(
		"class A:\n" +
			"    def m(self):\n" +
			"        pass\n")
	if diff := cmp.Diff([]int{0, 4}, HeaderDepths(lines)); diff != "" {
		t.Fatalf("HeaderDepths mismatch (-want +got):\n%s", diff)
	}
	if HeaderDepths(nil) != nil {
		t.Fatal("no lines, no depths")
	}
}

func TestAdmissibleMiddle(t *testing.T) {
	forbidden := HeaderDepths(sample[:3]) // depth of "def f():"

	// Interior body lines are fine.
	if !AdmissibleMiddle(sample, Span{Start: 4, End: 5}, forbidden) {
		t.Fatal("body lines at depth 4 should be admissible")
	}
	// A span containing the header is rejected.
	if AdmissibleMiddle(sample, Span{Start: 3, End: 4}, forbidden) {
		t.Fatal("span containing def header must be rejected")
	}
	// A span whose line sits at a forbidden depth is rejected.
	if AdmissibleMiddle(sample, Span{Start: 8, End: 8}, forbidden) {
		t.Fatal("print(f()) is at depth 0, same as def f()")
	}
	// Decorators are rejected.
	dec := linesOf("def f():\n    pass\n\n@cached\ndef g():\n    pass\n")
	if AdmissibleMiddle(dec, Span{Start: 4, End: 4}, []int{}) {
		t.Fatal("decorator line must be rejected")
	}
	// Out-of-range and empty spans are inadmissible, never a panic.
	if AdmissibleMiddle(sample, Span{Start: 0, End: 2}, nil) {
		t.Fatal("span before line 1 is invalid")
	}
	if AdmissibleMiddle(sample, Span{Start: 7, End: 99}, nil) {
		t.Fatal("span past EOF is invalid")
	}
	if AdmissibleMiddle(sample, Span{Start: 5, End: 4}, nil) {
		t.Fatal("empty span is invalid")
	}
}

func TestSplitReconstruction(t *testing.T) {
	full := strings.Join(sample, "")
	for start := 1; start <= len(sample); start++ {
		for end := start; end <= len(sample); end++ {
			prefix, middle, suffix, ok := Split(sample, Span{Start: start, End: end}, unit)
			if !ok {
				continue
			}
			if got := prefix + middle + suffix; got != full {
				t.Fatalf("span [%d,%d]: reconstruction mismatch:\n%q", start, end, got)
			}
			if !HasDefinitionWithBody(linesOf(prefix), unit) {
				t.Fatalf("span [%d,%d]: accepted prefix lacks definition with body", start, end)
			}
		}
	}
}

func TestSplitRejectsBadPrefix(t *testing.T) {
	// Splitting at line 2 leaves only "import os" in the prefix.
	if _, _, _, ok := Split(sample, Span{Start: 2, End: 3}, unit); ok {
		t.Fatal("prefix without a definition body must be rejected")
	}
	if _, _, _, ok := Split(sample, Span{Start: 0, End: 3}, unit); ok {
		t.Fatal("invalid span must be rejected")
	}
}
