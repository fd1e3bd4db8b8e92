package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upperDoc    = "# Upper\n\nInput:\n```text\nhello\n```\n\nExpected output:\n```text\nHELLO\n```\n\nInput:\n```text\nworld\n```\n\nExpected output:\n```text\nWORLD\n```\n"
	mixedDoc    = "Input:\n```text\nhello\n```\n\nExpected output:\n```text\nHELLO\n```\n\nInput:\n```text\nworld\n```\n\nExpected output:\n```text\nEARTH\n```\n"
	brokenDoc   = "Input:\n```text\na\n```\n\nInput:\n```text\nb\n```\n\nExpected output:\n```text\nA\n```\n"
	upperRunner = "tr '[:lower:]' '[:upper:]'"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the CLI and returns the exit code, stdout and stderr.
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "conform", cmd.Use)
	assert.Contains(t, cmd.Long, "Exit codes")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"suite", "parse"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	parallelFlag := cmd.PersistentFlags().Lookup("parallel")
	require.NotNil(t, parallelFlag)
	assert.Equal(t, "1", parallelFlag.DefValue)
}

func TestRunFlags(t *testing.T) {
	cmd := NewRootCommand()

	timeoutFlag := cmd.Flags().Lookup("timeout")
	require.NotNil(t, timeoutFlag)
	assert.Equal(t, "10", timeoutFlag.DefValue)

	fuzzyFlag := cmd.Flags().Lookup("fuzzy")
	require.NotNil(t, fuzzyFlag)
	assert.Equal(t, "false", fuzzyFlag.DefValue)

	for _, name := range []string{"examples", "runner"} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "", f.DefValue)
	}
}

func TestRun_AllPass(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", upperRunner)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "--- Test #1 ---\nPASS\n")
	assert.Contains(t, stdout, "--- Test #2 ---\nPASS\n")
	assert.Contains(t, stdout, "All tests passed\n")
}

func TestRun_FailureExitsTwo(t *testing.T) {
	path := writeDoc(t, "examples.md", mixedDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", upperRunner)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "FAIL\n--- Expected ---\nEARTH\n--- Actual ---\nWORLD\n")
	assert.Contains(t, stdout, "-EARTH\n+WORLD\n")
	assert.Contains(t, stdout, "1 test(s) failed\n")
}

func TestRun_CorpusMismatchIsFatal(t *testing.T) {
	path := writeDoc(t, "examples.md", brokenDoc)
	marker := filepath.Join(t.TempDir(), "invoked")

	code, stdout, _ := execute(t, "--examples", path, "--runner", "touch "+marker)

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stdout, "Error [E_CORPUS_MISMATCH]")
	assert.Contains(t, stdout, "found 2 input blocks but 1 expected output blocks")
	assert.NotContains(t, stdout, "--- Test #")
	assert.NoFileExists(t, marker, "runner never started")
}

func TestRun_LaunchFailureIsFatal(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", "no-such-runner-binary-xyz")

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stdout, "Error [E_LAUNCH]")
}

func TestRun_MissingDocumentIsFatal(t *testing.T) {
	code, stdout, _ := execute(t, "--examples", filepath.Join(t.TempDir(), "missing.md"), "--runner", "cat")

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stdout, "Error [E_LOAD]")
}

func TestRun_Timeout(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", "sleep 5", "--timeout", "1")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "Runner timed out after 1s")
	assert.Contains(t, stdout, "2 test(s) failed")
}

func TestRun_Fuzzy(t *testing.T) {
	doc := "Input:\n```text\na   b\nc\n```\n\nExpected output:\n```text\na b c\n```\n"
	path := writeDoc(t, "examples.md", doc)

	code, _, _ := execute(t, "--examples", path, "--runner", "cat")
	assert.Equal(t, ExitFailure, code)

	code, _, _ = execute(t, "--examples", path, "--runner", "cat", "--fuzzy")
	assert.Equal(t, ExitSuccess, code)
}

func TestRun_ParallelAndFailFast(t *testing.T) {
	path := writeDoc(t, "examples.md", mixedDoc)

	code, _, _ := execute(t, "--examples", path, "--runner", upperRunner, "--parallel", "2")
	assert.Equal(t, ExitFailure, code)

	code, stdout, _ := execute(t, "--examples", path, "--runner", "cat", "--fail-fast")
	assert.Equal(t, ExitFailure, code)
	assert.NotContains(t, stdout, "--- Test #2 ---")
}

func TestRun_JSON(t *testing.T) {
	path := writeDoc(t, "examples.md", mixedDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", upperRunner, "--format", "json")
	assert.Equal(t, ExitFailure, code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Total    int    `json:"total"`
			Failures int    `json:"failures"`
			Mode     string `json:"mode"`
			Entries  []struct {
				ExampleID int `json:"example_id"`
				Outcome   struct {
					Verdict string `json:"verdict"`
				} `json:"outcome"`
			} `json:"entries"`
		} `json:"data"`
		Error *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failures)
	assert.Equal(t, "strict", resp.Data.Mode)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, "pass", resp.Data.Entries[0].Outcome.Verdict)
	assert.Equal(t, "fail", resp.Data.Entries[1].Outcome.Verdict)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestRun_JSONAllPass(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	code, stdout, _ := execute(t, "--examples", path, "--runner", upperRunner, "--format", "json")
	assert.Equal(t, ExitSuccess, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestRun_UsageErrors(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing runner", []string{"--examples", path}, "Error [E_USAGE]: both --examples and --runner are required"},
		{"missing examples", []string{"--runner", "cat"}, "Error [E_USAGE]"},
		{"zero timeout", []string{"--examples", path, "--runner", "cat", "--timeout", "0"}, "--timeout must be a positive number of seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := execute(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestRun_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--bogus"}, "unknown flag: --bogus"},
		{"bad format", []string{"--format", "xml"}, `invalid format "xml"`},
		{"bad log format", []string{"--log-format", "xml", "--examples", "x", "--runner", "cat"}, `invalid log format "xml"`},
		{"bad parallel", []string{"--parallel", "0"}, "invalid --parallel 0"},
		{"non-integer timeout", []string{"--timeout", "soon"}, "invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	path := writeDoc(t, "examples.md", upperDoc)

	code, stdout, stderr := execute(t, "--examples", path, "--runner", upperRunner, "-v", "--log-format", "json")
	assert.Equal(t, ExitSuccess, code)
	assert.NotContains(t, stdout, `"level"`)
	assert.Contains(t, stderr, `"msg":"run started"`)
	assert.Contains(t, stderr, `"msg":"example finished"`)
}
