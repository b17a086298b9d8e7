package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/testutil"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBuild(id string, offset time.Duration) BuildRow {
	return BuildRow{
		ID:               id,
		TransformationID: "tf-1",
		Intent:           "drop rows with invalid emails",
		Provider:         "openai/gpt-4o-mini",
		State:            build.StateBuilding,
		StartedAt:        testutil.Epoch.Add(offset),
	}
}
