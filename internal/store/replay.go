package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/aiden/internal/build"
)

// AbandonedMessage is recorded as the error of builds closed by AbandonIncomplete.
const AbandonedMessage = "build abandoned: process exited before the build finished"

// FindIncompleteBuilds returns builds that started but never reached a
// terminal state, oldest first. These are left behind when the process
// exits mid-build.
// Returns an empty slice (not nil) if there are none.
func (s *Store) FindIncompleteBuilds(ctx context.Context) ([]BuildRow, error) {
	return s.queryBuilds(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE state = ?
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`, string(build.StateBuilding))
}

// AbandonIncomplete moves every incomplete build to the error state.
// Returns the IDs that were closed, oldest first.
func (s *Store) AbandonIncomplete(ctx context.Context, at time.Time) ([]string, error) {
	incomplete, err := s.FindIncompleteBuilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("find incomplete builds: %w", err)
	}

	ids := make([]string, 0, len(incomplete))
	for _, b := range incomplete {
		if err := s.FinishBuild(ctx, b.ID, build.StateError, at, "", AbandonedMessage); err != nil {
			return ids, err
		}
		ids = append(ids, b.ID)
	}
	return ids, nil
}
