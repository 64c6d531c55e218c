package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: passing
description: "a single message is stored"
messages:
  a: {}
steps:
  - settle: { slot: "1:0", emit: [a] }
assertions:
  - type: pool_size
    count: 1
`

const failingScenario = `
name: failing
description: "expects a message that was never emitted"
messages:
  a: {}
steps:
  - settle: { slot: "1:0" }
assertions:
  - type: pool_contains
    labels: [a]
`

func writeScenarios(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644))
	}
	return dir
}

func TestReplay_Pass(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing": passingScenario})

	stdout, _, err := execute(t, "replay", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ passing")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestReplay_Failure(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing": passingScenario, "failing": failingScenario})

	stdout, _, err := execute(t, "--format", "json", "replay", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestReplay_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing": passingScenario, "failing": failingScenario})

	stdout, _, err := execute(t, "replay", dir, "--filter", "pass*")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "failing")
}

func TestReplay_UpdateThenCompareGolden(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing": passingScenario})
	golden := filepath.Join(filepath.Dir(dir), "golden", "passing.golden")

	_, _, err := execute(t, "replay", dir, "--update")
	require.NoError(t, err)
	require.FileExists(t, golden)

	_, _, err = execute(t, "replay", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	stdout, _, err := execute(t, "replay", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "does not match golden file")
}

func TestReplay_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "replay", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestReplay_Empty(t *testing.T) {
	dir := writeScenarios(t, nil)

	stdout, _, err := execute(t, "replay", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestReplay_HarnessTestdata(t *testing.T) {
	stdout, _, err := execute(t, "replay", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ capacity_eviction")
	assert.Contains(t, stdout, "✓ trigger_activation")
}
