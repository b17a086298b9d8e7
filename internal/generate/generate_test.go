package generate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/dataset"
	"github.com/roach88/aiden/internal/registry"
	"github.com/roach88/aiden/internal/testutil"
)

func TestScripted(t *testing.T) {
	s := NewScripted("a", "b")
	ctx := context.Background()

	c, err := s.Generate(ctx, build.GenerationRequest{Iteration: 0})
	require.NoError(t, err)
	assert.Equal(t, "a", c.Code)
	assert.Equal(t, 1, s.Remaining())

	c, err = s.Generate(ctx, build.GenerationRequest{Iteration: 1})
	require.NoError(t, err)
	assert.Equal(t, "b", c.Code)

	_, err = s.Generate(ctx, build.GenerationRequest{Iteration: 2})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, s.Requests(), 3)
}

func TestScripted_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScripted("a").Generate(ctx, build.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "02_second.py", "print(2)")
	testutil.WriteFile(t, dir, "01_first.py", "print(1)")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	s, err := FromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Remaining())

	c, err := s.Generate(context.Background(), build.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "print(1)", c.Code)

	_, err = FromDir(t.TempDir())
	assert.Error(t, err)
	_, err = FromDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func shCommand(t *testing.T, script string, opts ...CommandOption) *Command {
	t.Helper()
	testutil.RequireInterpreter(t, "sh")
	c, err := NewCommand([]string{"sh", "-c", script}, opts...)
	require.NoError(t, err)
	return c
}

func TestCommand_FencedResponse(t *testing.T) {
	c := shCommand(t, "cat > /dev/null; printf 'Here:\\n```python\\nx = 1\\n```\\n'")

	cand, err := c.Generate(context.Background(), build.GenerationRequest{Task: "t"})
	require.NoError(t, err)
	assert.Equal(t, "x = 1", cand.Code)
	assert.Equal(t, artifact.ID("x = 1"), cand.ArtifactID)
}

func TestCommand_JSONResponse(t *testing.T) {
	c := shCommand(t, `cat > /dev/null; echo '{"code": "print(1)"}'`)

	cand, err := c.Generate(context.Background(), build.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "print(1)", cand.Code)
}

func TestCommand_RequestPayload(t *testing.T) {
	reqPath := filepath.Join(t.TempDir(), "req.json")
	reg := registry.New()
	require.NoError(t, dataset.Register(reg,
		dataset.New("/data/emails_in.csv", "csv", dataset.Schema{"email": "string"}),
		dataset.New("/data/emails_out.csv", "csv", nil),
	))
	c := shCommand(t, `cat > "`+reqPath+`"; echo "print('$AIDEN_PROVIDER')"`,
		WithProvider("openai/gpt-4o-mini"), WithRegistry(reg))

	cand, err := c.Generate(context.Background(), build.GenerationRequest{
		Task:          "clean emails",
		Plan:          "use a regex",
		InputDatasets: []string{"emails_in"},
		OutputDataset: "emails_out",
		Iteration:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "print('openai/gpt-4o-mini')", cand.Code)

	data, err := os.ReadFile(reqPath)
	require.NoError(t, err)
	var got CommandRequest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "clean emails", got.Task)
	assert.Equal(t, "use a regex", got.Plan)
	assert.Equal(t, 1, got.Iteration)
	assert.Equal(t, "openai/gpt-4o-mini", got.Provider)
	require.Contains(t, got.Datasets, "emails_in")
	assert.Equal(t, "/data/emails_in.csv", got.Datasets["emails_in"].Path)
	assert.Contains(t, got.Datasets, "emails_out")
}

func TestCommand_UnknownDataset(t *testing.T) {
	c := shCommand(t, "true", WithRegistry(registry.New()))
	_, err := c.Generate(context.Background(), build.GenerationRequest{InputDatasets: []string{"missing"}})
	assert.True(t, registry.IsNotFound(err))
}

func TestCommand_Failures(t *testing.T) {
	c := shCommand(t, "cat > /dev/null; echo 'quota exceeded' >&2; exit 3")
	_, err := c.Generate(context.Background(), build.GenerationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	c = shCommand(t, "cat > /dev/null")
	_, err = c.Generate(context.Background(), build.GenerationRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	c = shCommand(t, "exec sleep 5", WithTimeout(100*time.Millisecond))
	_, err = c.Generate(context.Background(), build.GenerationRequest{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewCommand_Empty(t *testing.T) {
	_, err := NewCommand(nil)
	assert.Error(t, err)
	_, err = NewCommand([]string{" "})
	assert.Error(t, err)
}
