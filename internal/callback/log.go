package callback

import (
	"context"
	"log/slog"

	"github.com/roach88/aiden/internal/artifact"
	"github.com/roach88/aiden/internal/build"
)

// LogObserver logs lifecycle events as structured records.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// OnBuildStart implements build.Observer.
func (o LogObserver) OnBuildStart(ctx context.Context, info build.BuildStateInfo) error {
	o.logger().InfoContext(ctx, "build started",
		"build_id", info.BuildID,
		"transformation_id", info.TransformationID,
		"intent", info.Intent,
		"provider", info.Provider,
	)
	return nil
}

// OnIterationStart implements build.Observer.
func (o LogObserver) OnIterationStart(ctx context.Context, info build.BuildStateInfo) error {
	o.logger().DebugContext(ctx, "iteration started", "build_id", info.BuildID, "iteration", iteration(info))
	return nil
}

// OnIterationEnd implements build.Observer.
func (o LogObserver) OnIterationEnd(ctx context.Context, info build.BuildStateInfo) error {
	attrs := []any{"build_id", info.BuildID, "iteration", iteration(info)}
	if rec := info.Record; rec != nil {
		attrs = append(attrs,
			"accepted", rec.Accepted,
			"artifact_id", artifact.ShortID(rec.ArtifactID),
			"duration", rec.Duration,
		)
		if rec.Reason != "" {
			attrs = append(attrs, "reason", rec.Reason)
		}
	}
	o.logger().InfoContext(ctx, "iteration finished", attrs...)
	return nil
}

// OnBuildEnd implements build.Observer.
func (o LogObserver) OnBuildEnd(ctx context.Context, info build.BuildStateInfo) error {
	if info.Err != nil {
		o.logger().WarnContext(ctx, "build failed", "build_id", info.BuildID, "error", info.Err)
		return nil
	}
	o.logger().InfoContext(ctx, "build ready",
		"build_id", info.BuildID,
		"artifact_id", artifact.ShortID(info.FinalArtifactID),
	)
	return nil
}

var _ build.Observer = LogObserver{}
