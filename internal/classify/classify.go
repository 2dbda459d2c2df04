// Package classify provides line-level predicates for Python source text.
// These are shallow lexical heuristics over a single line - there is no
// parser and no indentation-stack tracking. Callers that need block-level
// structure compose these predicates over line sequences.
package classify

import (
	"regexp"
	"strings"
)

// DefaultIndentUnit is the canonical one-level indentation prefix used
// when no unit is configured (PEP 8 four spaces).
const DefaultIndentUnit = "    "

// headerPattern matches a line whose first token is a def or class
// keyword followed by whitespace. Mid-line references to the keywords
// (e.g. "x = def_table[i]") do not match.
var headerPattern = regexp.MustCompile(`^[ \t]*(?:def|class)\s`)

// IsDefinitionHeader reports whether the line opens a function or class
// definition.
func IsDefinitionHeader(line string) bool {
	return headerPattern.MatchString(line)
}

// IsDecorator reports whether the line is a decorator application.
func IsDecorator(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "@")
}

// IsIndented reports whether the line starts with one full indent unit.
// It is a coarse "probably inside a block" signal, not a nesting level.
func IsIndented(line, unit string) bool {
	if unit == "" {
		unit = DefaultIndentUnit
	}
	return strings.HasPrefix(line, unit)
}

// IndentDepth returns the number of leading whitespace characters before
// the first non-whitespace character. Empty and whitespace-only lines
// have depth 0.
func IndentDepth(line string) int {
	if strings.TrimSpace(line) == "" {
		return 0
	}
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
