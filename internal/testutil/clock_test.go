package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock(0)
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(0)
	clock.Advance(90 * time.Second)
	assert.Equal(t, Epoch.Add(90*time.Second), clock.Now())

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestManualClock_Step(t *testing.T) {
	clock := NewManualClock(time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	seen := make(chan time.Time, numGoroutines*callsPerGoroutine)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		require.False(t, unique[ts], "duplicate timestamp %v", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, numGoroutines*callsPerGoroutine)
}

func TestFixedIDGenerator(t *testing.T) {
	gen := NewFixedIDGenerator("build-1")
	assert.Equal(t, "build-1", gen.Generate())
	assert.Equal(t, "build-1", gen.Generate())

	assert.Equal(t, "test-build-default", NewFixedIDGenerator("").Generate())
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := WriteCSV(t, dir, "in/data.csv", []string{"id", "name"}, []string{"1", "a"}, []string{"2", "b"})

	assert.FileExists(t, path)
	assert.Equal(t, "id,name\n1,a\n2,b\n", readFile(t, path))
}
