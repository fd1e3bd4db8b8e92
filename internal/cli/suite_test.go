package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest lays out a suite directory holding docs and the manifest
// itself, and returns the manifest path.
func writeManifest(t *testing.T, manifest string, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, doc := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
	}
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

const twoSkills = `
timeout: 5
skills:
  - name: first
    examples: first.md
    runner: "tr '[:lower:]' '[:upper:]'"
  - name: second
    examples: second.md
    runner: "tr '[:lower:]' '[:upper:]'"
`

func TestSuite_AllPass(t *testing.T) {
	path := writeManifest(t, twoSkills, map[string]string{
		"first.md":  upperDoc,
		"second.md": upperDoc,
	})

	code, stdout, _ := execute(t, "suite", path)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "=== Skill: first ===")
	assert.Contains(t, stdout, "=== Skill: second ===")
	assert.Contains(t, stdout, "=== Suite summary ===\nPASS   first: 2/2 passed\nPASS   second: 2/2 passed\nAll 2 skill(s) passed\n")
}

func TestSuite_FailureExitsTwo(t *testing.T) {
	path := writeManifest(t, twoSkills, map[string]string{
		"first.md":  upperDoc,
		"second.md": mixedDoc,
	})

	code, stdout, _ := execute(t, "suite", path)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "FAIL   second: 1/2 passed")
	assert.Contains(t, stdout, "1 of 2 skill(s) did not pass")
}

func TestSuite_FatalSkillExitsThree(t *testing.T) {
	path := writeManifest(t, twoSkills, map[string]string{
		"first.md":  brokenDoc,
		"second.md": upperDoc,
	})

	code, stdout, _ := execute(t, "suite", path)

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stdout, "FATAL  first: corpus mismatch")
	assert.Contains(t, stdout, "PASS   second: 2/2 passed", "later skills still run")
}

func TestSuite_JSON(t *testing.T) {
	path := writeManifest(t, twoSkills, map[string]string{
		"first.md":  brokenDoc,
		"second.md": mixedDoc,
	})

	code, stdout, _ := execute(t, "suite", path, "--format", "json")
	assert.Equal(t, ExitFatal, code)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Skill  string `json:"skill"`
			Status string `json:"status"`
			Error  string `json:"error"`
			Report *struct {
				Failures int `json:"failures"`
			} `json:"report"`
		} `json:"data"`
		Error *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)

	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCorpusMismatch, resp.Error.Code)
	assert.Equal(t, "2 of 2 skill(s) did not pass", resp.Error.Message)

	require.Len(t, resp.Data, 2)
	assert.Equal(t, "fatal", resp.Data[0].Status)
	assert.Contains(t, resp.Data[0].Error, "corpus mismatch")
	assert.Nil(t, resp.Data[0].Report)
	assert.Equal(t, "failed", resp.Data[1].Status)
	require.NotNil(t, resp.Data[1].Report)
	assert.Equal(t, 1, resp.Data[1].Report.Failures)
}

func TestSuite_JSONAllPass(t *testing.T) {
	path := writeManifest(t, twoSkills, map[string]string{
		"first.md":  upperDoc,
		"second.md": upperDoc,
	})

	code, stdout, _ := execute(t, "suite", path, "--format", "json")
	assert.Equal(t, ExitSuccess, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestSuite_InvalidManifest(t *testing.T) {
	path := writeManifest(t, "skills: []\n", nil)

	code, stdout, _ := execute(t, "suite", path)

	assert.Equal(t, ExitFatal, code)
	assert.Contains(t, stdout, "Error [E_LOAD]")
	assert.Contains(t, stdout, "no skills defined")
}

func TestSuite_MissingArgument(t *testing.T) {
	code, _, stderr := execute(t, "suite")

	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "accepts 1 arg")
}
