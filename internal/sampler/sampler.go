// Package sampler draws candidate middle spans from a file's executed
// lines. Draws are biased toward the center of the executed-line index
// space: interior logic makes a better fill-in-the-middle target than
// imports or top-level scaffolding near the edges.
package sampler

import (
	"fmt"
	"math/rand"

	"fimcorpus/internal/classify"
	"fimcorpus/internal/split"
)

// Config bounds a sampler's draws.
type Config struct {
	// MinMiddle and MaxMiddle bound the span length drawn in
	// executed-line index space.
	MinMiddle int
	MaxMiddle int

	// Retries is how many draws to attempt before reporting that the
	// file has no admissible span.
	Retries int

	// IndentUnit is the one-level indentation prefix used by the
	// structural checks.
	IndentUnit string
}

// DefaultConfig returns the standard sampling bounds.
func DefaultConfig() Config {
	return Config{
		MinMiddle:  1,
		MaxMiddle:  10,
		Retries:    10,
		IndentUnit: classify.DefaultIndentUnit,
	}
}

// Validate rejects configurations that could never produce a span.
// These are deterministic logic errors, checked before any sampling.
func (c Config) Validate() error {
	if c.MinMiddle < 1 {
		return fmt.Errorf("min middle lines must be at least 1, got %d", c.MinMiddle)
	}
	if c.MinMiddle > c.MaxMiddle {
		return fmt.Errorf("min middle lines %d exceeds max %d", c.MinMiddle, c.MaxMiddle)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retry budget must be at least 1, got %d", c.Retries)
	}
	return nil
}

// Sampler draws candidate spans using an injected random source, so
// runs are reproducible under a fixed seed.
type Sampler struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Sampler. The configuration is validated up front.
func New(cfg Config, rng *rand.Rand) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampler config: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	return &Sampler{cfg: cfg, rng: rng}, nil
}

// Select draws an admissible middle span for the file, or reports
// (zero, false) after exhausting the retry budget. A false result is an
// expected outcome - the caller moves on to another file - never an
// error. Executed line numbers must be ascending, deduplicated, and
// 1-indexed into fileLines.
func (s *Sampler) Select(fileLines []string, executed []int) (split.Span, bool) {
	n := len(executed)
	if n < s.cfg.MinMiddle {
		return split.Span{}, false
	}

	// Center bias: normal distribution over executed-line indices.
	// Integer division means std degrades to 0 for n < 4, collapsing
	// draws onto the center index; accepted degenerate case.
	mean := n / 2
	std := n / 4

	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		draw := s.rng.NormFloat64()*float64(std) + float64(mean)
		if upper := float64(n - s.cfg.MinMiddle); draw > upper {
			draw = upper
		}
		if draw < 0 {
			draw = 0
		}
		startIdx := int(draw)

		length := s.cfg.MinMiddle + s.rng.Intn(s.cfg.MaxMiddle-s.cfg.MinMiddle+1)
		endIdx := startIdx + length
		if endIdx > n-1 {
			endIdx = n - 1
		}

		// Map index endpoints back to absolute file lines. The span is
		// the half-open file-line range [executed[startIdx],
		// executed[endIdx]): interior lines are included whether or not
		// they executed, because the split operates on file lines once
		// the endpoints are fixed. When both endpoints land on the same
		// index (only possible at the top of the executed list) the
		// candidate is that single line.
		lo, hi := executed[startIdx], executed[endIdx]
		if hi < lo {
			continue
		}
		span := split.Span{Start: lo, End: hi - 1}
		if hi == lo {
			span.End = lo
		}

		forbidden := s.forbiddenDepths(fileLines, lo)
		if split.AdmissibleMiddle(fileLines, span, forbidden) {
			return span, true
		}
	}

	return split.Span{}, false
}

// forbiddenDepths collects the indentation depth of every definition
// header strictly before the span's first line.
func (s *Sampler) forbiddenDepths(fileLines []string, startLine int) []int {
	end := startLine - 1
	if end < 0 {
		end = 0
	}
	if end > len(fileLines) {
		end = len(fileLines)
	}
	return split.HeaderDepths(fileLines[:end])
}
