package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/testutil"
)

var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

func TestTest_HarnessScenarios(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ retry_then_ready")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_FilterJSON(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), harnessScenarios, "--filter", "exhaust*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "exhausted", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "error", resp.Data.Scenarios[0].State)
}

func TestTest_UpdateThenCompare(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	writeFile(t, scenarios, "echo.yaml", `name: echo
description: One accepted candidate
candidates: ["echo hi"]
expect:
  state: ready
`)

	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenarios, "--update")
	require.NoError(t, err)
	golden, err := os.ReadFile(filepath.Join(root, "golden", "echo.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"output": "hi\n"`)

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ echo")

	writeFile(t, root, filepath.Join("golden", "echo.golden"), "{}\n")
	out, _, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_Errors(t *testing.T) {
	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
