package corpus

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fimcorpus/internal/classify"
	"fimcorpus/internal/coverage"
	"fimcorpus/internal/sampler"
	"fimcorpus/internal/split"
)

// Options bounds one extraction run.
type Options struct {
	// NumExamples is the target size of the example set.
	NumExamples int

	// MaxRetries is the global budget of consecutive failed attempts
	// (unreadable file, empty coverage, no admissible span, blank
	// middle) before the run stops with a partial result.
	MaxRetries int

	// Span sampling bounds, passed through to the sampler.
	MinMiddle     int
	MaxMiddle     int
	SampleRetries int

	// IndentUnit is the one-level indentation prefix for the
	// structural checks.
	IndentUnit string

	// Workers > 1 runs file-selection iterations concurrently. The
	// coverage report is read-only; appends are serialized.
	Workers int

	// Deduplicate rejects examples whose exact middle line range was
	// already collected in this run.
	Deduplicate bool
}

// DefaultOptions mirrors the extraction defaults of the original
// pipeline: 50 examples, 100 global retries, 1-10 middle lines.
func DefaultOptions() Options {
	return Options{
		NumExamples:   50,
		MaxRetries:    100,
		MinMiddle:     1,
		MaxMiddle:     10,
		SampleRetries: 10,
		IndentUnit:    classify.DefaultIndentUnit,
		Workers:       1,
	}
}

// Validate fails fast on configurations that are logic errors rather
// than sampling misses.
func (o Options) Validate() error {
	if o.NumExamples < 0 {
		return fmt.Errorf("target example count must not be negative, got %d", o.NumExamples)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("global retry budget must not be negative, got %d", o.MaxRetries)
	}
	if o.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", o.Workers)
	}
	return o.samplerConfig().Validate()
}

func (o Options) samplerConfig() sampler.Config {
	return sampler.Config{
		MinMiddle:  o.MinMiddle,
		MaxMiddle:  o.MaxMiddle,
		Retries:    o.SampleRetries,
		IndentUnit: o.IndentUnit,
	}
}

// Builder extracts fill-in-the-middle examples from a coverage report.
// The random source is injected so runs are reproducible under a seed.
type Builder struct {
	opts   Options
	rng    *rand.Rand
	reader FileReader
	logger *zap.Logger
}

// NewBuilder validates the options and wires the builder. A nil reader
// defaults to the OS filesystem; a nil logger is replaced with a no-op.
func NewBuilder(opts Options, rng *rand.Rand, reader FileReader, logger *zap.Logger) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid builder options: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if reader == nil {
		reader = OSReader{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, rng: rng, reader: reader, logger: logger}, nil
}

// Build collects up to NumExamples examples, stopping early once
// MaxRetries consecutive attempts fail. A short (even empty) result is
// a normal outcome, not an error; callers observe it by comparing the
// returned length with the requested count.
func (b *Builder) Build(ctx context.Context, report *coverage.Report) ([]Example, error) {
	if b.opts.NumExamples == 0 {
		return nil, nil
	}
	paths := report.Paths()
	if len(paths) == 0 {
		b.logger.Warn("coverage report lists no files")
		return nil, nil
	}

	var (
		examples []Example
		err      error
	)
	if b.opts.Workers > 1 {
		examples, err = b.buildParallel(ctx, report, paths)
	} else {
		examples, err = b.buildSequential(ctx, report, paths)
	}
	if err != nil {
		return examples, err
	}

	b.logger.Info("extraction finished",
		zap.Int("collected", len(examples)),
		zap.Int("requested", b.opts.NumExamples))
	return examples, nil
}

func (b *Builder) buildSequential(ctx context.Context, report *coverage.Report, paths []string) ([]Example, error) {
	smp, err := sampler.New(b.opts.samplerConfig(), b.rng)
	if err != nil {
		return nil, err
	}

	var examples []Example
	seen := make(map[string]bool)
	retries := 0

	for len(examples) < b.opts.NumExamples && retries < b.opts.MaxRetries {
		if err := ctx.Err(); err != nil {
			return examples, err
		}

		path := paths[b.rng.Intn(len(paths))]
		ex, ok := b.attempt(smp, path, report.Files[path])
		if !ok || (b.opts.Deduplicate && seen[ex.Key()]) {
			retries++
			continue
		}
		seen[ex.Key()] = true
		examples = append(examples, ex)
		retries = 0
	}
	return examples, nil
}

func (b *Builder) buildParallel(ctx context.Context, report *coverage.Report, paths []string) ([]Example, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		examples []Example
		seen     = make(map[string]bool)
		retries  atomic.Int64
	)

	g, runCtx := errgroup.WithContext(runCtx)
	for w := 0; w < b.opts.Workers; w++ {
		// Each worker owns its random source and sampler; only the
		// append below is shared.
		rng := rand.New(rand.NewSource(b.rng.Int63()))
		smp, err := sampler.New(b.opts.samplerConfig(), rng)
		if err != nil {
			return nil, err
		}

		g.Go(func() error {
			for {
				select {
				case <-runCtx.Done():
					return nil
				default:
				}
				if retries.Load() >= int64(b.opts.MaxRetries) {
					return nil
				}

				path := paths[rng.Intn(len(paths))]
				ex, ok := b.attempt(smp, path, report.Files[path])
				if !ok {
					retries.Add(1)
					continue
				}

				mu.Lock()
				switch {
				case len(examples) >= b.opts.NumExamples:
					mu.Unlock()
					return nil
				case b.opts.Deduplicate && seen[ex.Key()]:
					mu.Unlock()
					retries.Add(1)
				default:
					seen[ex.Key()] = true
					examples = append(examples, ex)
					done := len(examples) >= b.opts.NumExamples
					mu.Unlock()
					retries.Store(0)
					if done {
						cancel()
						return nil
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return examples, err
	}
	if err := ctx.Err(); err != nil {
		return examples, err
	}
	return examples, nil
}

// attempt runs one file-selection iteration: read, sample, split,
// re-gate. Every false return counts as one retry at the call site.
func (b *Builder) attempt(smp *sampler.Sampler, path string, fc coverage.FileCoverage) (Example, bool) {
	if len(fc.ExecutedLines) == 0 {
		return Example{}, false
	}

	lines, err := b.reader.ReadLines(path)
	if err != nil {
		// A file listed in the index but unreadable on disk fails this
		// attempt only; the batch keeps going.
		b.logger.Warn("failed to read covered file", zap.String("file", path), zap.Error(err))
		return Example{}, false
	}

	span, ok := smp.Select(lines, fc.ExecutedLines)
	if !ok {
		b.logger.Debug("no admissible span", zap.String("file", path))
		return Example{}, false
	}

	prefix, middle, suffix, ok := split.Split(lines, span, b.opts.IndentUnit)
	if !ok {
		return Example{}, false
	}
	if strings.TrimSpace(middle) == "" {
		return Example{}, false
	}

	return Example{
		FilePath:  path,
		Prefix:    prefix,
		Middle:    middle,
		Suffix:    suffix,
		StartLine: span.Start,
		EndLine:   span.End,
	}, true
}
