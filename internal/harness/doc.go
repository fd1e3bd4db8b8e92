// Package harness runs an example corpus against a runner command and reports
// per-example verdicts.
//
// # Run lifecycle
//
// A run parses the corpus exactly once. If the document is malformed (unequal
// numbers of input and expected blocks) the run stops before any runner is
// started. Otherwise every example is fed to the runner on stdin, the captured
// stdout is compared with the expected output, and a progress block is written
// as soon as the example completes:
//
//	--- Test #2 ---
//	Runner stderr:
//	warning: delta
//
//	Runner exited with code 1
//	FAIL
//	--- Expected ---
//	...
//	--- Actual ---
//	...
//	--- Diff ---
//	...
//
// The run ends with either "All tests passed" or "N test(s) failed".
//
// A runner that cannot be launched at all aborts the run with an
// *invoke.LaunchError; no Report is produced.
//
// # Outcome log
//
// Outcomes are recorded into a fresh in-memory SQLite store per run and read
// back ordered by example id, so the Report is sorted even when examples run
// in parallel. Nothing is written to disk.
//
// # Usage
//
//	h := harness.New(harness.Config{
//	    Examples: "references/examples.md",
//	    Runner:   "python3 scripts/mock_runner.py",
//	    Timeout:  10 * time.Second,
//	})
//	report, err := h.Run(ctx)
//	if err != nil {
//	    return err // corpus mismatch, unreadable document or launch failure
//	}
//	if report.Failures > 0 {
//	    os.Exit(2)
//	}
package harness
