package callback

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aiden/internal/build"
)

func at(i int) *int { return &i }

func TestChainOfThought_BuildStart(t *testing.T) {
	var log StepLog
	c := NewChainOfThought(&log)

	require.NoError(t, c.OnBuildStart(context.Background(), build.BuildStateInfo{Intent: "Test intent", Provider: "openai/gpt-4o"}))

	steps := log.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, SystemAgent, steps[0].Agent)
	assert.Contains(t, steps[0].Message, "Test intent")
	assert.Contains(t, steps[0].Message, "openai/gpt-4o")
}

func TestChainOfThought_Messages(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *ChainOfThought) error
		want string
	}{
		{
			name: "iteration start is 1-based",
			call: func(c *ChainOfThought) error {
				return c.OnIterationStart(ctx, build.BuildStateInfo{Iteration: at(2)})
			},
			want: "📊 Starting iteration 3",
		},
		{
			name: "iteration end with node",
			call: func(c *ChainOfThought) error {
				return c.OnIterationEnd(ctx, build.BuildStateInfo{Iteration: at(1), Node: &build.Node{}})
			},
			want: "📋 Iteration 2 completed.",
		},
		{
			name: "iteration end without node",
			call: func(c *ChainOfThought) error {
				return c.OnIterationEnd(ctx, build.BuildStateInfo{Iteration: at(0)})
			},
			want: "📋 Iteration 1 failed: No performance metrics available",
		},
		{
			name: "build end ready",
			call: func(c *ChainOfThought) error {
				return c.OnBuildEnd(ctx, build.BuildStateInfo{State: build.StateReady})
			},
			want: "✅ Model build completed",
		},
		{
			name: "build end error",
			call: func(c *ChainOfThought) error {
				return c.OnBuildEnd(ctx, build.BuildStateInfo{State: build.StateError, Err: errors.New("budget exhausted")})
			},
			want: "❌ Build failed: budget exhausted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log StepLog
			c := NewChainOfThought(&log)
			require.NoError(t, tt.call(c))
			assert.Equal(t, []Step{{Agent: SystemAgent, Message: tt.want}}, log.Steps())
			assert.Equal(t, log.Steps(), c.FullChainOfThought())
		})
	}
}

func TestChainOfThought_ClearsOnBuildStart(t *testing.T) {
	ctx := context.Background()
	c := NewChainOfThought()

	require.NoError(t, c.OnIterationStart(ctx, build.BuildStateInfo{Iteration: at(0)}))
	require.NoError(t, c.OnBuildStart(ctx, build.BuildStateInfo{Intent: "again"}))

	steps := c.FullChainOfThought()
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0].Message, "again")
}

func TestWriterEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := &WriterEmitter{W: &buf}
	e.EmitThought("System", "hello")
	assert.Equal(t, "[System] hello\n", buf.String())
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	o := LogObserver{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	ctx := context.Background()

	require.NoError(t, o.OnBuildStart(ctx, build.BuildStateInfo{BuildID: "b1", Intent: "clean"}))
	require.NoError(t, o.OnIterationStart(ctx, build.BuildStateInfo{BuildID: "b1", Iteration: at(0)}))
	require.NoError(t, o.OnIterationEnd(ctx, build.BuildStateInfo{
		BuildID:   "b1",
		Iteration: at(0),
		Record:    &build.IterationRecord{Reason: "execution raised: boom"},
	}))
	require.NoError(t, o.OnBuildEnd(ctx, build.BuildStateInfo{BuildID: "b1", Err: errors.New("exhausted")}))

	out := buf.String()
	assert.Contains(t, out, "build started")
	assert.Contains(t, out, "iteration=1")
	assert.Contains(t, out, `reason="execution raised: boom"`)
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=exhausted")
}

func TestChainOfThought_InBuild(t *testing.T) {
	c := NewChainOfThought()
	m := build.NewMachine(scripted{"ok"}, okExecutor{}, build.WithWorkdir(t.TempDir()), build.WithObserver(c))

	require.NoError(t, m.Build(context.Background(), build.NewTransformation(build.Spec{Intent: "clean emails"})))

	var msgs []string
	for _, s := range c.FullChainOfThought() {
		msgs = append(msgs, s.Message)
	}
	assert.Equal(t, []string{
		"🚀 Starting build for: clean emails",
		"📊 Starting iteration 1",
		"📋 Iteration 1 completed.",
		"✅ Model build completed",
	}, msgs)
}

func TestChainOfThought_ConcurrentBuildsKeepOwnSteps(t *testing.T) {
	c := NewChainOfThought()
	m := build.NewMachine(scripted{"ok"}, okExecutor{},
		build.WithWorkdir(t.TempDir()),
		build.WithObserver(c),
		build.WithIDGenerator(build.NewFixedGenerator("build-a", "build-b")),
	)

	var wg sync.WaitGroup
	for _, intent := range []string{"first", "second"} {
		wg.Add(1)
		go func(intent string) {
			defer wg.Done()
			assert.NoError(t, m.Build(context.Background(), build.NewTransformation(build.Spec{Intent: intent})))
		}(intent)
	}
	wg.Wait()

	for _, id := range []string{"build-a", "build-b"} {
		steps := c.Steps(id)
		require.Len(t, steps, 4, id)
		assert.Contains(t, steps[0].Message, "🚀 Starting build for: ")
		assert.Equal(t, "✅ Model build completed", steps[3].Message)
	}
	assert.Nil(t, c.Steps("build-c"))
}
