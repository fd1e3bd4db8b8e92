package suite

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conform/internal/harness"
	"github.com/roach88/conform/internal/testutil"
)

const (
	passingDoc = "Input:\n```text\nhello\n```\n\nExpected output:\n```text\nHELLO\n```\n"
	failingDoc = "Input:\n```text\nhello\n```\n\nExpected output:\n```text\nGOODBYE\n```\n"
	brokenDoc  = "Input:\n```text\nhello\n```\n"
)

// writeSuite lays out a suite whose runner is a script relative to the
// manifest directory, so the tests also cover the runner working directory.
func writeSuite(t *testing.T, manifest string, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "upper.sh", "tr '[:lower:]' '[:upper:]'\n")
	for name, doc := range docs {
		writeFile(t, dir, name, doc)
	}
	return writeFile(t, dir, "suite.yaml", manifest)
}

func TestRun_AllSkillsPass(t *testing.T) {
	path := writeSuite(t, `
timeout: 5
skills:
  - name: first
    examples: first/examples.md
    runner: sh ./upper.sh
  - name: second
    examples: second/examples.md
    runner: sh upper.sh
`, map[string]string{
		"first/examples.md":  passingDoc,
		"second/examples.md": passingDoc,
	})

	m, err := Load(path)
	require.NoError(t, err)

	var out bytes.Buffer
	results := m.Run(context.Background(), Options{
		Output:  &out,
		Harness: []harness.Option{harness.WithRunID(testutil.NewSequenceRunIDGenerator("suite"))},
	})

	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, StatusPassed, r.Status, r.Skill)
		require.NotNil(t, r.Report)
		assert.Equal(t, 1, r.Report.Total)
		assert.Equal(t, fmt.Sprintf("suite-%d", i+1), r.Report.RunID)
	}
	assert.Equal(t, StatusPassed, Worst(results))
	assert.Contains(t, out.String(), "=== Skill: first ===")
	assert.Contains(t, out.String(), "=== Skill: second ===")
}

func TestRun_FatalSkillDoesNotStopSuite(t *testing.T) {
	path := writeSuite(t, `
skills:
  - name: broken
    examples: broken.md
    runner: sh upper.sh
  - name: failing
    examples: failing.md
    runner: sh upper.sh
  - name: passing
    examples: passing.md
    runner: sh upper.sh
`, map[string]string{
		"broken.md":  brokenDoc,
		"failing.md": failingDoc,
		"passing.md": passingDoc,
	})

	m, err := Load(path)
	require.NoError(t, err)

	results := m.Run(context.Background(), Options{})
	require.Len(t, results, 3)

	assert.Equal(t, StatusFatal, results[0].Status)
	assert.Nil(t, results[0].Report)
	assert.Error(t, results[0].Err)
	assert.Contains(t, results[0].Message, "corpus mismatch")

	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, 1, results[1].Report.Failures)

	assert.Equal(t, StatusPassed, results[2].Status)
	assert.Equal(t, StatusFatal, Worst(results))
}

func TestRun_CancelledContext(t *testing.T) {
	path := writeSuite(t, "skills:\n  - name: a\n    examples: a.md\n    runner: cat\n",
		map[string]string{"a.md": passingDoc})

	m, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := m.Run(ctx, Options{})
	require.Len(t, results, 1)
	assert.Equal(t, StatusFatal, results[0].Status)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestWorst(t *testing.T) {
	assert.Equal(t, StatusPassed, Worst(nil))
	assert.Equal(t, StatusFailed, Worst([]Result{{Status: StatusPassed}, {Status: StatusFailed}}))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "passed", StatusPassed.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "fatal", StatusFatal.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

func TestWriteSummary(t *testing.T) {
	path := writeSuite(t, `
skills:
  - name: ok
    examples: passing.md
    runner: sh upper.sh
  - name: bad
    examples: failing.md
    runner: sh upper.sh
`, map[string]string{
		"failing.md": failingDoc,
		"passing.md": passingDoc,
	})
	m, err := Load(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteSummary(&buf, m.Run(context.Background(), Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "=== Suite summary ===", lines[0])
	assert.Equal(t, "PASS   ok: 1/1 passed", lines[1])
	assert.Equal(t, "FAIL   bad: 0/1 passed", lines[2])
	assert.Equal(t, "1 of 2 skill(s) did not pass", lines[3])
}
