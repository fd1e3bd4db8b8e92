package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/conform/internal/harness"
	"github.com/roach88/conform/internal/invoke"
)

// Status is the outcome of one skill. Larger values are worse.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of running one skill.
type Result struct {
	Skill  string          `json:"skill"`
	Status Status          `json:"status"`
	Report *harness.Report `json:"report,omitempty"`

	// Err is set when Status is StatusFatal; Message carries its text in JSON.
	Err     error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// Options tunes every skill run of a suite.
type Options struct {
	Parallel int
	FailFast bool

	// Output receives each skill's progress blocks. Nil discards.
	Output io.Writer
	Logger *slog.Logger

	// Harness options are applied after the defaults, so they can replace the
	// shell invoker.
	Harness []harness.Option
}

// Run executes every skill in manifest order. A fatal error in one skill is
// recorded and the suite moves on to the next.
func (m *Manifest) Run(ctx context.Context, opts Options) []Result {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	results := make([]Result, 0, len(m.Skills))
	for _, s := range m.Skills {
		if ctx.Err() != nil {
			err := fmt.Errorf("suite cancelled: %w", ctx.Err())
			results = append(results, Result{Skill: s.Name, Status: StatusFatal, Err: err, Message: err.Error()})
			continue
		}

		cfg := m.Config(s)
		cfg.Parallel = opts.Parallel
		cfg.FailFast = opts.FailFast

		shell := invoke.NewShellInvoker()
		shell.Dir = m.Dir
		shell.Logger = logger

		hopts := []harness.Option{
			harness.WithInvoker(shell),
			harness.WithOutput(out),
			harness.WithLogger(logger.With("skill", s.Name)),
		}
		hopts = append(hopts, opts.Harness...)

		fmt.Fprintf(out, "=== Skill: %s ===\n", s.Name)
		report, err := harness.New(cfg, hopts...).Run(ctx)

		res := Result{Skill: s.Name, Report: report, Err: err}
		switch {
		case err != nil:
			res.Status = StatusFatal
			res.Message = err.Error()
			fmt.Fprintf(out, "Error: %v\n", err)
			logger.Warn("skill aborted", "skill", s.Name, "error", err)
		case report.Failures > 0:
			res.Status = StatusFailed
		default:
			res.Status = StatusPassed
		}
		fmt.Fprintln(out)
		results = append(results, res)
	}
	return results
}

// Worst returns the most severe status among results, StatusPassed if empty.
func Worst(results []Result) Status {
	worst := StatusPassed
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}

// WriteSummary prints one line per skill followed by the overall verdict.
func WriteSummary(w io.Writer, results []Result) {
	fmt.Fprintln(w, "=== Suite summary ===")
	for _, r := range results {
		switch r.Status {
		case StatusFatal:
			fmt.Fprintf(w, "%-6s %s: %v\n", "FATAL", r.Skill, r.Err)
		case StatusFailed:
			fmt.Fprintf(w, "%-6s %s: %d/%d passed\n", "FAIL", r.Skill, r.Report.Passed, r.Report.Total)
		default:
			fmt.Fprintf(w, "%-6s %s: %d/%d passed\n", "PASS", r.Skill, r.Report.Passed, r.Report.Total)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Status != StatusPassed {
			failed++
		}
	}
	if failed == 0 {
		fmt.Fprintf(w, "All %d skill(s) passed\n", len(results))
		return
	}
	fmt.Fprintf(w, "%d of %d skill(s) did not pass\n", failed, len(results))
}
