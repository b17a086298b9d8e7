package build

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Observer receives lifecycle notifications. Implementations must return
// promptly; the build loop waits for them.
type Observer interface {
	OnBuildStart(ctx context.Context, info BuildStateInfo) error
	OnIterationStart(ctx context.Context, info BuildStateInfo) error
	OnIterationEnd(ctx context.Context, info BuildStateInfo) error
	OnBuildEnd(ctx context.Context, info BuildStateInfo) error
}

// BuildStateInfo is the snapshot passed to observers.
type BuildStateInfo struct {
	BuildID          string
	TransformationID string
	Intent           string
	Provider         string
	State            State

	// At is the machine clock time of the event.
	At time.Time

	// Iteration is the 0-based index; nil for build-level events.
	Iteration *int

	// Node is set on iteration end when the candidate ran without error.
	Node *Node

	// Record is set on iteration end.
	Record *IterationRecord

	// FinalArtifactID is set on build end when the build is ready.
	FinalArtifactID string

	// Err is set on build end when the build failed.
	Err error
}

// BaseObserver implements Observer with no-ops, for embedding.
type BaseObserver struct{}

func (BaseObserver) OnBuildStart(context.Context, BuildStateInfo) error     { return nil }
func (BaseObserver) OnIterationStart(context.Context, BuildStateInfo) error { return nil }
func (BaseObserver) OnIterationEnd(context.Context, BuildStateInfo) error   { return nil }
func (BaseObserver) OnBuildEnd(context.Context, BuildStateInfo) error       { return nil }

// Observers fans a notification out to every observer in order.
//
// Every observer is called even when an earlier one fails or panics; the
// failures are joined into the returned error.
type Observers []Observer

func (obs Observers) OnBuildStart(ctx context.Context, info BuildStateInfo) error {
	return obs.each(func(o Observer) error { return o.OnBuildStart(ctx, info) })
}

func (obs Observers) OnIterationStart(ctx context.Context, info BuildStateInfo) error {
	return obs.each(func(o Observer) error { return o.OnIterationStart(ctx, info) })
}

func (obs Observers) OnIterationEnd(ctx context.Context, info BuildStateInfo) error {
	return obs.each(func(o Observer) error { return o.OnIterationEnd(ctx, info) })
}

func (obs Observers) OnBuildEnd(ctx context.Context, info BuildStateInfo) error {
	return obs.each(func(o Observer) error { return o.OnBuildEnd(ctx, info) })
}

func (obs Observers) each(call func(Observer) error) error {
	var errs []error
	for _, o := range obs {
		if err := safeCall(o, call); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func safeCall(o Observer, call func(Observer) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer %T panicked: %v", o, r)
		}
	}()
	return call(o)
}
