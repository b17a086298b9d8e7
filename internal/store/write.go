package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
)

// WriteArtifact stores code under its content-addressed ID and returns the ID.
// Idempotent: writing the same code twice is a no-op.
func (s *Store) WriteArtifact(ctx context.Context, code string) (string, error) {
	id := artifact.ID(code)
	if err := s.putArtifact(ctx, id, code); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) putArtifact(ctx context.Context, id, code string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, code)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, artifact.Normalize(code))
	if err != nil {
		return fmt.Errorf("write artifact %s: %w", artifact.ShortID(id), err)
	}
	return nil
}

// WriteBuildStart records a build entering the building state.
// Idempotent on build ID.
func (s *Store) WriteBuildStart(ctx context.Context, b BuildRow) error {
	if b.ID == "" {
		return fmt.Errorf("write build: id is required")
	}
	state := b.State
	if state == "" {
		state = build.StateBuilding
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, transformation_id, intent, provider, state, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, b.ID, b.TransformationID, b.Intent, b.Provider, string(state), formatTime(b.StartedAt))
	if err != nil {
		return fmt.Errorf("write build %s: %w", b.ID, err)
	}
	return nil
}

// FinishBuild records the terminal state of a build.
// Only a build still in the building state is updated, so a second call
// for the same build is a no-op.
func (s *Store) FinishBuild(ctx context.Context, id string, state build.State, at time.Time, finalArtifactID, errMsg string) error {
	if !state.IsTerminal() {
		return fmt.Errorf("finish build %s: state %s is not terminal", id, state)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE builds
		SET state = ?, finished_at = ?, final_artifact_id = ?, error = ?
		WHERE id = ? AND state = ?
	`, string(state), formatTime(at), nullString(finalArtifactID), errMsg, id, string(build.StateBuilding))
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.ReadBuild(ctx, id); err != nil {
			return fmt.Errorf("finish build: %w", err)
		}
	}
	return nil
}

// WriteIteration records one iteration. The candidate code must already be
// stored via WriteArtifact when ArtifactID is set.
// Idempotent on (build_id, idx).
func (s *Store) WriteIteration(ctx context.Context, it IterationRow) error {
	output, err := marshalOutput(it.Output)
	if err != nil {
		return err
	}
	checks, err := marshalChecks(it.Checks)
	if err != nil {
		return err
	}

	var exitCode any
	if it.ExitCode != nil {
		exitCode = *it.ExitCode
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO iterations (
			build_id, idx, artifact_id, execution_id, condition, exit_code,
			output, error, accepted, reason, checks, started_at, duration_ms
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(build_id, idx) DO NOTHING
	`,
		it.BuildID, it.Index, nullString(it.ArtifactID), it.ExecutionID, string(it.Condition), exitCode,
		output, it.Error, boolToInt(it.Accepted), it.Reason, checks,
		formatTime(it.StartedAt), it.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write iteration %s/%d: %w", it.BuildID, it.Index, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
