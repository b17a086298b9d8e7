package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/environment"
	"github.com/roach88/aiden/internal/registry"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name     string
		stderr   string
		wantType string
		wantMsg  string
	}{
		{
			name:     "python traceback",
			stderr:   "Traceback (most recent call last):\n  File \"main.py\", line 1, in <module>\nKeyError: 'email'\n",
			wantType: "KeyError",
			wantMsg:  "'email'",
		},
		{
			name:     "qualified exception",
			stderr:   "pandas.errors.ParserError: Error tokenizing data\n",
			wantType: "pandas.errors.ParserError",
			wantMsg:  "Error tokenizing data",
		},
		{
			name:     "bare exception name",
			stderr:   "Traceback (most recent call last):\nKeyboardInterrupt\n",
			wantType: "KeyboardInterrupt",
		},
		{
			name:    "shell error",
			stderr:  "main.sh: 1: frobnicate: not found\n",
			wantMsg: "main.sh: 1: frobnicate: not found",
		},
		{
			name:    "empty",
			wantMsg: "process exited with status 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyFailure(tt.stderr, 1)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, 1, err.ExitCode)
		})
	}
}

func TestCapture_SnapshotIsCopy(t *testing.T) {
	c := &capture{}
	_, _ = c.stream(Stdout).Write([]byte("a"))
	_, _ = c.stream(Stderr).Write([]byte("b"))
	_, _ = c.stream(Stdout).Write(nil)

	snap := c.snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, Chunk{Stream: Stdout, Text: "a"}, snap[0])
	assert.Equal(t, Chunk{Stream: Stderr, Text: "b"}, snap[1])

	snap[0].Text = "changed"
	assert.Equal(t, "a", c.snapshot()[0].Text)
}

func TestBindDatasets(t *testing.T) {
	reg := registry.New()
	require.NoError(t, dataset.Register(reg,
		dataset.New("/data/emails.csv", "csv", dataset.Schema{"email": "string"}),
		dataset.New("/data/clean.csv", "csv", nil),
	))

	env, err := BindDatasets(reg, []string{"emails"}, "clean")
	require.NoError(t, err)
	assert.Equal(t, "emails", env[EnvInputDatasets])
	assert.Equal(t, "clean", env[EnvOutputDataset])
	assert.Contains(t, env[EnvDatasets], `"path":"/data/emails.csv"`)
	assert.Contains(t, env[EnvDatasets], `"output":{"name":"clean"`)
	assert.Equal(t, "/data/emails.csv", env["AIDEN_DATASET_EMAILS_PATH"])
	assert.Equal(t, "/data/clean.csv", env["AIDEN_DATASET_CLEAN_PATH"])

	_, err = BindDatasets(reg, []string{"emails", "missing"}, "")
	assert.True(t, registry.IsNotFound(err))

	env, err = BindDatasets(reg, nil, "")
	require.NoError(t, err)
	_, hasOutput := env[EnvOutputDataset]
	assert.False(t, hasOutput)
}

func TestPathVar(t *testing.T) {
	assert.Equal(t, "AIDEN_DATASET_EMAILS_IN_PATH", PathVar("emails_in"))
	assert.Equal(t, "AIDEN_DATASET_SALES_2024_PATH", PathVar("sales-2024"))
}

func TestForEnvironment(t *testing.T) {
	for _, typ := range []environment.Type{environment.TypeLocal, environment.TypeDagster} {
		env, err := environment.New(typ, "http://dagster:3000", t.TempDir())
		require.NoError(t, err)

		_, ok := ForEnvironment(env).(*Local)
		assert.True(t, ok, typ)
	}
}
