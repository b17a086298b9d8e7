package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const emailsConfig = `id: emails-copy
intent: Copy the email list
inputs: [emails_in]
output: emails_out

environment:
  workdir: work

datasets:
  - name: emails_in
    path: emails.csv
    format: csv
    fields:
      email: string
  - name: emails_out
    path: out/emails.csv
    format: csv
    fields:
      email: string

build:
  max_iterations: 3
  iteration_timeout: 10s
  checks: true

executor:
  interpreter: [sh]
  suffix: .sh
`

// buildFixture writes a config, its input and candidates into a temp dir.
// Returns the config path and the candidates dir.
func buildFixture(t *testing.T, candidates ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "emails.yaml", emailsConfig)
	writeFile(t, dir, "emails.csv", "email\na@example.com\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))

	candDir := filepath.Join(dir, "candidates")
	for i, c := range candidates {
		writeFile(t, candDir, string(rune('a'+i))+".sh", c)
	}
	return cfg, candDir
}

// clearAidenEnv unsets overrides that would change config loading.
func clearAidenEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AIDEN_ENV", "AIDEN_WORKDIR", "DAGSTER_URL", "AIDEN_DB", "AIDEN_PROVIDER",
		"AIDEN_MAX_ITERATIONS", "AIDEN_ITERATION_TIMEOUT", "AIDEN_MAX_DURATION",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}
