package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/executor"
)

// ErrBuildNotFound is returned when a build ID is not in the journal.
var ErrBuildNotFound = errors.New("build not found")

// ErrArtifactNotFound is returned when an artifact ID is not in the journal.
var ErrArtifactNotFound = errors.New("artifact not found")

const buildColumns = `id, transformation_id, intent, provider, state, started_at,
	finished_at, final_artifact_id, error`

// ReadBuild returns one build by ID.
func (s *Store) ReadBuild(ctx context.Context, id string) (BuildRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE id = ?
	`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BuildRow{}, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	if err != nil {
		return BuildRow{}, fmt.Errorf("read build %s: %w", id, err)
	}
	return b, nil
}

// ListBuilds returns builds newest first. An empty transformationID lists
// every build; limit <= 0 means no limit.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListBuilds(ctx context.Context, transformationID string, limit int) ([]BuildRow, error) {
	query := `SELECT ` + buildColumns + ` FROM builds`
	var args []any
	if transformationID != "" {
		query += ` WHERE transformation_id = ?`
		args = append(args, transformationID)
	}
	query += ` ORDER BY started_at DESC, id COLLATE BINARY ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryBuilds(ctx, query, args...)
}

// ReadIterations returns all iterations of a build in index order.
// Returns an empty slice (not nil) if the build has none.
func (s *Store) ReadIterations(ctx context.Context, buildID string) ([]IterationRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT build_id, idx, artifact_id, execution_id, condition, exit_code,
			output, error, accepted, reason, checks, started_at, duration_ms
		FROM iterations
		WHERE build_id = ?
		ORDER BY idx ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	iterations := []IterationRow{}
	for rows.Next() {
		var (
			it         IterationRow
			artifactID sql.NullString
			condition  string
			exitCode   sql.NullInt64
			output     string
			accepted   int
			checks     string
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(
			&it.BuildID, &it.Index, &artifactID, &it.ExecutionID, &condition, &exitCode,
			&output, &it.Error, &accepted, &it.Reason, &checks, &startedAt, &durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}

		it.ArtifactID = artifactID.String
		it.Condition = executor.Condition(condition)
		if exitCode.Valid {
			code := int(exitCode.Int64)
			it.ExitCode = &code
		}
		if it.Output, err = unmarshalOutput(output); err != nil {
			return nil, err
		}
		if it.Checks, err = unmarshalChecks(checks); err != nil {
			return nil, err
		}
		if it.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		it.Accepted = accepted != 0
		it.Duration = time.Duration(durationMS) * time.Millisecond

		iterations = append(iterations, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	return iterations, nil
}

// ReadArtifact returns the code stored under an artifact ID.
func (s *Store) ReadArtifact(ctx context.Context, id string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT code FROM artifacts WHERE id = ?`, id).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", id, err)
	}
	return code, nil
}

func (s *Store) queryBuilds(ctx context.Context, query string, args ...any) ([]BuildRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []BuildRow{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(r rowScanner) (BuildRow, error) {
	var (
		b               BuildRow
		state           string
		startedAt       string
		finishedAt      sql.NullString
		finalArtifactID sql.NullString
	)
	if err := r.Scan(
		&b.ID, &b.TransformationID, &b.Intent, &b.Provider, &state, &startedAt,
		&finishedAt, &finalArtifactID, &b.Error,
	); err != nil {
		return BuildRow{}, err
	}

	var err error
	b.State = build.State(state)
	if b.StartedAt, err = parseTime(startedAt); err != nil {
		return BuildRow{}, err
	}
	if finishedAt.Valid {
		if b.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return BuildRow{}, err
		}
	}
	b.FinalArtifactID = finalArtifactID.String
	return b, nil
}
