package harness

import (
	"fmt"
	"time"

	"github.com/roach88/conform/internal/compare"
	"github.com/roach88/conform/internal/normalize"
)

// DefaultTimeout bounds each runner invocation when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Config describes a single harness run.
type Config struct {
	// Examples is the path of the examples document.
	Examples string

	// Runner is the shell command line that transforms stdin into stdout.
	Runner string

	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration

	// Mode is the normalization applied to both texts before comparing.
	Mode normalize.Mode

	// Parallel is the maximum number of concurrent invocations. Values below 1
	// mean sequential.
	Parallel int

	// FailFast stops scheduling new examples after the first failure.
	FailFast bool
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Parallel < 1 {
		c.Parallel = 1
	}
	return c
}

// Entry pairs an example id with its outcome.
type Entry struct {
	ExampleID int             `json:"example_id"`
	Outcome   compare.Outcome `json:"outcome"`
}

// Report is the result of a completed run. Entries are sorted by ExampleID.
type Report struct {
	RunID  string         `json:"run_id"`
	Source string         `json:"source"`
	Runner string         `json:"runner"`
	Mode   normalize.Mode `json:"mode"`

	// Planned is the number of examples in the corpus; Total the number that
	// ran. They differ only when FailFast stopped the run early.
	Planned  int `json:"planned"`
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failures int `json:"failures"`

	// CompletionOrder lists example ids in the order they finished.
	CompletionOrder []int `json:"completion_order"`

	Entries []Entry `json:"entries"`
}

// OK reports whether every example passed.
func (r *Report) OK() bool {
	return r.Failures == 0
}

// Failed returns the entries whose verdict is Fail, in example order.
func (r *Report) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if !e.Outcome.Passed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Summary is the final line of the progress report.
func (r *Report) Summary() string {
	if r.Failures > 0 {
		return fmt.Sprintf("%d test(s) failed", r.Failures)
	}
	return "All tests passed"
}
