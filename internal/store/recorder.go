package store

import (
	"context"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
)

// Recorder is a build.Observer that journals every build event.
type Recorder struct {
	build.BaseObserver
	store *Store
}

// NewRecorder creates a recorder writing to s.
func NewRecorder(s *Store) *Recorder {
	return &Recorder{store: s}
}

// OnBuildStart records the build row.
func (r *Recorder) OnBuildStart(ctx context.Context, info build.BuildStateInfo) error {
	return r.store.WriteBuildStart(ctx, BuildRow{
		ID:               info.BuildID,
		TransformationID: info.TransformationID,
		Intent:           info.Intent,
		Provider:         info.Provider,
		State:            build.StateBuilding,
		StartedAt:        info.At,
	})
}

// OnIterationEnd records the candidate artifact and the iteration row.
func (r *Recorder) OnIterationEnd(ctx context.Context, info build.BuildStateInfo) error {
	if info.Record == nil {
		return nil
	}
	rec := *info.Record
	if rec.Code != "" {
		if rec.ArtifactID == "" {
			rec.ArtifactID = artifact.ID(rec.Code)
		}
		if err := r.store.putArtifact(ctx, rec.ArtifactID, rec.Code); err != nil {
			return err
		}
	}
	return r.store.WriteIteration(ctx, IterationFromRecord(info.BuildID, rec))
}

// OnBuildEnd records the terminal state.
func (r *Recorder) OnBuildEnd(ctx context.Context, info build.BuildStateInfo) error {
	var msg string
	if info.Err != nil {
		msg = info.Err.Error()
	}
	return r.store.FinishBuild(ctx, info.BuildID, info.State, info.At, info.FinalArtifactID, msg)
}
