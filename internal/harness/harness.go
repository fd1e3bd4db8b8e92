package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/conform/internal/compare"
	"github.com/roach88/conform/internal/corpus"
	"github.com/roach88/conform/internal/invoke"
	"github.com/roach88/conform/internal/store"
)

// Harness runs one corpus against one runner.
type Harness struct {
	cfg     Config
	invoker invoke.Invoker
	logger  *slog.Logger
	out     io.Writer
	ids     RunIDGenerator

	// mu serializes progress output between concurrent examples.
	mu sync.Mutex
}

// Option configures a Harness.
type Option func(*Harness)

// WithInvoker replaces the shell invoker, typically with a fake in tests.
func WithInvoker(inv invoke.Invoker) Option {
	return func(h *Harness) { h.invoker = inv }
}

// WithLogger sets the structured logger. Defaults to discarding; nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOutput sets where progress blocks and the summary line are written.
// Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(h *Harness) { h.out = w }
}

// WithRunID sets the run id generator. Defaults to UUIDv7Generator.
func WithRunID(g RunIDGenerator) Option {
	return func(h *Harness) { h.ids = g }
}

// New creates a harness for cfg.
func New(cfg Config, opts ...Option) *Harness {
	h := &Harness{
		cfg:     cfg.withDefaults(),
		invoker: invoke.NewShellInvoker(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:     io.Discard,
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Config returns the effective configuration, defaults applied.
func (h *Harness) Config() Config {
	return h.cfg
}

// Run loads the examples document and runs every example.
//
// A document that cannot be read or whose block counts differ is returned as an
// error before any invocation. A launch failure aborts the run. Per-example
// failures, timeouts included, are reported in the Report, not as an error.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	c, err := corpus.Load(h.cfg.Examples)
	if err != nil {
		h.logger.Warn("corpus rejected", "path", h.cfg.Examples, "error", err)
		return nil, err
	}
	return h.RunCorpus(ctx, c)
}

// RunCorpus runs an already parsed corpus.
func (h *Harness) RunCorpus(ctx context.Context, c *corpus.Corpus) (*Report, error) {
	// Fresh in-memory store per run keeps runs isolated.
	st, err := store.Open(store.Memory)
	if err != nil {
		return nil, fmt.Errorf("failed to create outcome log: %w", err)
	}
	defer st.Close()

	runID := h.ids.Generate()
	if err := st.WriteRun(ctx, store.Run{
		ID:     runID,
		Source: c.Source,
		Mode:   h.cfg.Mode.String(),
		Total:  c.Len(),
	}); err != nil {
		return nil, err
	}

	h.logger.Debug("run started",
		"run_id", runID,
		"source", c.Source,
		"examples", c.Len(),
		"mode", h.cfg.Mode,
		"parallel", h.cfg.Parallel,
		"timeout", h.cfg.Timeout,
	)

	if err := h.runExamples(ctx, st, runID, c.Examples); err != nil {
		h.logger.Warn("run aborted", "run_id", runID, "error", err)
		return nil, err
	}

	report, err := h.buildReport(ctx, st, runID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	fmt.Fprintln(h.out, report.Summary())
	h.mu.Unlock()

	h.logger.Debug("run finished",
		"run_id", runID,
		"total", report.Total,
		"failures", report.Failures,
	)
	return report, nil
}

// runExamples invokes every example, at most cfg.Parallel at a time. With
// Parallel == 1 examples run strictly in document order.
func (h *Harness) runExamples(ctx context.Context, st *store.Store, runID string, examples []corpus.Example) error {
	var (
		stop     atomic.Bool
		launched atomic.Bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Parallel)

	for _, ex := range examples {
		if stop.Load() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Re-checked here: with a limit of 1, Go blocks until the
			// previous example finished, which may have failed the run or
			// requested a stop.
			if stop.Load() || gctx.Err() != nil {
				return nil
			}
			res, err := h.invoker.Invoke(gctx, h.cfg.Runner, ex.Input, h.cfg.Timeout)
			if err != nil {
				return fmt.Errorf("example %d: %w", ex.ID, err)
			}
			if !launched.Load() {
				if err := invoke.CheckLaunch(h.cfg.Runner, res); err != nil {
					return fmt.Errorf("example %d: %w", ex.ID, err)
				}
				launched.Store(true)
			}

			out := compare.Compare(ex, res, h.cfg.Mode)
			h.logger.Debug("example finished",
				"example", ex.ID,
				"verdict", out.Verdict,
				"exit_code", res.ExitCode,
				"timed_out", res.TimedOut,
				"elapsed", res.Elapsed,
			)

			// Recording under the same lock as printing keeps the
			// completion order equal to the printed order.
			h.mu.Lock()
			writeProgress(h.out, ex, out, h.cfg.Timeout)
			err = st.WriteOutcome(gctx, runID, out)
			h.mu.Unlock()
			if err != nil {
				return err
			}

			if !out.Passed() && h.cfg.FailFast {
				stop.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

func (h *Harness) buildReport(ctx context.Context, st *store.Store, runID string) (*Report, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	outcomes, err := st.ReadOutcomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	failures, err := st.CountFailures(ctx, runID)
	if err != nil {
		return nil, err
	}
	order, err := st.CompletionOrder(ctx, runID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(outcomes))
	for i, out := range outcomes {
		entries[i] = Entry{ExampleID: out.ExampleID, Outcome: out}
	}

	return &Report{
		RunID:           runID,
		Source:          run.Source,
		Runner:          h.cfg.Runner,
		Mode:            h.cfg.Mode,
		Planned:         run.Total,
		Total:           len(entries),
		Passed:          len(entries) - failures,
		Failures:        failures,
		CompletionOrder: order,
		Entries:         entries,
	}, nil
}
