package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_RetryThenReady(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	result, err := RunWithGolden(t, loadScenario(t, "retry_then_ready"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, build.StateReady, result.State)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	s := &Scenario{
		Name:        "mismatch",
		Description: "Succeeds while the scenario expects an error",
		Candidates:  []string{"echo hi"},
		Expect:      &ExpectClause{State: build.StateError, Iterations: 3},
	}
	require.NoError(t, validateScenario(s))

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, build.StateReady, result.State)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expect: state = ready, want error")
	assert.Equal(t, "expect: 3 iterations, got 1", result.Errors[1])
}

func TestRun_TraceSanitizesWorkdir(t *testing.T) {
	testutil.RequireInterpreter(t, "sh")

	s := &Scenario{
		Name:        "pwd",
		Description: "Prints the working directory",
		Candidates:  []string{`echo "$AIDEN_WORKDIR"`},
		Expect:      &ExpectClause{State: build.StateReady},
	}
	require.NoError(t, validateScenario(s))

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	var output string
	for _, ev := range result.Trace {
		if ev.Event == EventIterationEnd {
			output = ev.Output
		}
	}
	assert.Equal(t, workdirToken+"\n", output)
}

func TestRun_UnknownInputIsSetupError(t *testing.T) {
	s := &Scenario{
		Name:        "unbound",
		Description: "Input never declared",
		Inputs:      []string{"ghost"},
		Candidates:  []string{"true"},
		Expect:      &ExpectClause{State: build.StateReady},
	}

	_, err := Run(s)
	assert.ErrorContains(t, err, "bind input datasets")
}
