package harness

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/conform/internal/compare"
	"github.com/roach88/conform/internal/corpus"
)

// writeProgress prints the block for one completed example. Stderr and a
// non-zero exit code are shown for diagnosis only.
func writeProgress(w io.Writer, ex corpus.Example, out compare.Outcome, timeout time.Duration) {
	fmt.Fprintf(w, "--- Test #%d ---\n", ex.ID)

	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		fmt.Fprintf(w, "Runner stderr:\n%s\n\n", stderr)
	}
	switch {
	case out.TimedOut:
		fmt.Fprintf(w, "Runner timed out after %s\n", timeout)
	case out.ExitCode != 0:
		fmt.Fprintf(w, "Runner exited with code %d\n", out.ExitCode)
	}

	if out.Passed() {
		fmt.Fprint(w, "PASS\n\n")
		return
	}

	fmt.Fprintln(w, "FAIL")
	fmt.Fprintf(w, "--- Expected ---\n%s\n", ex.Expected)
	fmt.Fprintf(w, "--- Actual ---\n%s\n", strings.TrimSpace(out.Actual))
	fmt.Fprintln(w, "--- Diff ---")
	if diff := out.UnifiedDiff(); diff != "" {
		fmt.Fprint(w, diff)
	} else if out.TimedOut {
		fmt.Fprintln(w, "(no difference in the captured output, but it was cut short by the timeout)")
	}
	fmt.Fprintln(w)
}
