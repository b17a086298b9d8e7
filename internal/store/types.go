package store

import (
	"time"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/executor"
)

// BuildRow is one journaled build.
type BuildRow struct {
	ID               string      `json:"id"`
	TransformationID string      `json:"transformation_id"`
	Intent           string      `json:"intent"`
	Provider         string      `json:"provider,omitempty"`
	State            build.State `json:"state"`
	StartedAt        time.Time   `json:"started_at"`

	// FinishedAt is zero while the build is running.
	FinishedAt time.Time `json:"finished_at"`

	FinalArtifactID string `json:"final_artifact_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// IterationRow is one journaled iteration.
type IterationRow struct {
	BuildID     string `json:"build_id"`
	Index       int    `json:"index"`
	ArtifactID  string `json:"artifact_id,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`

	// Condition is empty when nothing ran (generation failed).
	Condition executor.Condition `json:"condition,omitempty"`

	// ExitCode is nil when nothing ran.
	ExitCode *int `json:"exit_code,omitempty"`

	Output    []executor.Chunk    `json:"output"`
	Error     string              `json:"error,omitempty"`
	Accepted  bool                `json:"accepted"`
	Reason    string              `json:"reason,omitempty"`
	Checks    []build.CheckResult `json:"checks"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
}

// IterationFromRecord converts an in-memory record to its journal row.
func IterationFromRecord(buildID string, rec build.IterationRecord) IterationRow {
	row := IterationRow{
		BuildID:     buildID,
		Index:       rec.Index,
		ArtifactID:  rec.ArtifactID,
		ExecutionID: rec.ExecutionID,
		Accepted:    rec.Accepted,
		Reason:      rec.Reason,
		Checks:      rec.Checks,
		StartedAt:   rec.StartedAt,
		Duration:    rec.Duration,
	}
	if res := rec.Result; res != nil {
		code := res.ExitCode
		row.Condition = res.Condition()
		row.ExitCode = &code
		row.Output = res.Output
		row.Error = res.ErrorMessage()
	}
	return row
}
