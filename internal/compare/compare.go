// Package compare decides whether a runner's output conforms to an example.
//
// Both texts are normalized with the run's mode and compared for equality.
// The runner's exit code and stderr are carried along for display but never
// change the verdict. A mismatch carries a line-level diff of the normalized
// texts.
package compare

import (
	"github.com/roach88/conform/internal/corpus"
	"github.com/roach88/conform/internal/invoke"
	"github.com/roach88/conform/internal/normalize"
)

// Verdict is the result of comparing one example.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// Outcome is the per-example verdict plus what is needed to explain it.
type Outcome struct {
	ExampleID int     `json:"example_id"`
	Verdict   Verdict `json:"verdict"`

	// Expected and Actual are the texts before normalization, kept for display.
	Expected string `json:"expected"`
	Actual   string `json:"actual"`

	ExpectedNormalized string `json:"expected_normalized,omitempty"`
	ActualNormalized   string `json:"actual_normalized,omitempty"`

	// Diff turns ExpectedNormalized into ActualNormalized. Empty on Pass.
	Diff []Edit `json:"diff,omitempty"`

	// Advisory diagnostics from the invocation.
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// Passed reports whether the outcome is a pass.
func (o *Outcome) Passed() bool {
	return o.Verdict == Pass
}

// UnifiedDiff renders Diff as unified diff text.
func (o *Outcome) UnifiedDiff() string {
	return Unified(o.ExpectedNormalized, o.ActualNormalized)
}

// Compare judges res against ex under mode.
//
// The outcome is Pass exactly when the normalized texts are equal, whatever the
// exit code or stderr. A timed-out invocation is always Fail: its output was cut
// short.
func Compare(ex corpus.Example, res *invoke.Result, mode normalize.Mode) Outcome {
	expected := normalize.Normalize(ex.Expected, mode)
	actual := normalize.Normalize(res.Stdout, mode)

	out := Outcome{
		ExampleID: ex.ID,
		Verdict:   Pass,
		Expected:  ex.Expected,
		Actual:    res.Stdout,
		Stderr:    res.Stderr,
		ExitCode:  res.ExitCode,
		TimedOut:  res.TimedOut,
	}

	if expected == actual && !res.TimedOut {
		return out
	}

	out.Verdict = Fail
	out.ExpectedNormalized = expected
	out.ActualNormalized = actual
	out.Diff = LineDiff(expected, actual)
	return out
}
