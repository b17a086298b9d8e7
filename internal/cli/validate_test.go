package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	clearAidenEnv(t)
	cfg := writeFile(t, t.TempDir(), "emails.yaml", emailsConfig)

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "is valid (inputs: emails_in, output: emails_out)")
}

func TestValidate_ValidJSON(t *testing.T) {
	clearAidenEnv(t)
	cfg := filepath.Join("..", "config", "testdata", "emails.hcl")

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), cfg)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"emails_in", "emails_out"}, resp.Data.Datasets)
}

func TestValidate_Problems(t *testing.T) {
	clearAidenEnv(t)
	cfg := writeFile(t, t.TempDir(), "bad.yaml", "inputs: [ghost]\nbuild:\n  max_iterations: -1\n")

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), cfg)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "  - intent is required")
	assert.Contains(t, out, "input ghost is not a declared dataset")
}

func TestValidate_ProblemsJSON(t *testing.T) {
	clearAidenEnv(t)
	cfg := writeFile(t, t.TempDir(), "bad.yaml", "inputs: [ghost]\n")

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), cfg)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidConfig, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "intent is required")
}

func TestValidate_ParseErrorAndMissingFile(t *testing.T) {
	clearAidenEnv(t)

	cfg := writeFile(t, t.TempDir(), "typo.yaml", "intnet: oops\n")
	_, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), cfg)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "none.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
