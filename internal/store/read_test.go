package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/aiden/internal/build"
	"github.com/roach88/aiden/internal/testutil"
)

func TestReadBuild_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadBuild(context.Background(), "nope")
	if !errors.Is(err, ErrBuildNotFound) {
		t.Errorf("ReadBuild() error = %v, want ErrBuildNotFound", err)
	}
}

func TestReadArtifact_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadArtifact(context.Background(), "nope")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("ReadArtifact() error = %v, want ErrArtifactNotFound", err)
	}
}

func TestListBuilds_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rows := []BuildRow{
		testBuild("b-old", 0),
		testBuild("b-new", 2*time.Minute),
		testBuild("b-tie-z", time.Minute),
		testBuild("b-tie-a", time.Minute),
	}
	other := testBuild("b-other", 5*time.Minute)
	other.TransformationID = "tf-2"
	rows = append(rows, other)

	for _, b := range rows {
		if err := s.WriteBuildStart(ctx, b); err != nil {
			t.Fatalf("WriteBuildStart(%s) error = %v", b.ID, err)
		}
	}

	got, err := s.ListBuilds(ctx, "tf-1", 0)
	if err != nil {
		t.Fatalf("ListBuilds() error = %v", err)
	}
	want := []string{"b-new", "b-tie-a", "b-tie-z", "b-old"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("builds[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	all, err := s.ListBuilds(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListBuilds(all) error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "b-other" {
		t.Errorf("ListBuilds(all, 2) = %+v", all)
	}
}

func TestListBuilds_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ListBuilds(context.Background(), "tf-none", 0)
	if err != nil {
		t.Fatalf("ListBuilds() error = %v", err)
	}
	if got == nil {
		t.Error("ListBuilds() = nil, want empty slice")
	}

	its, err := s.ReadIterations(context.Background(), "none")
	if err != nil {
		t.Fatalf("ReadIterations() error = %v", err)
	}
	if its == nil {
		t.Error("ReadIterations() = nil, want empty slice")
	}
}

func TestFindIncompleteBuilds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, b := range []BuildRow{testBuild("b-2", time.Minute), testBuild("b-1", 0), testBuild("b-done", 0)} {
		if err := s.WriteBuildStart(ctx, b); err != nil {
			t.Fatalf("WriteBuildStart() error = %v", err)
		}
	}
	if err := s.FinishBuild(ctx, "b-done", build.StateError, testutil.Epoch, "", "boom"); err != nil {
		t.Fatalf("FinishBuild() error = %v", err)
	}

	incomplete, err := s.FindIncompleteBuilds(ctx)
	if err != nil {
		t.Fatalf("FindIncompleteBuilds() error = %v", err)
	}
	if len(incomplete) != 2 || incomplete[0].ID != "b-1" || incomplete[1].ID != "b-2" {
		t.Fatalf("incomplete = %+v, want [b-1 b-2]", incomplete)
	}

	ids, err := s.AbandonIncomplete(ctx, testutil.Epoch.Add(time.Hour))
	if err != nil {
		t.Fatalf("AbandonIncomplete() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("abandoned = %v, want 2 ids", ids)
	}

	b, err := s.ReadBuild(ctx, "b-1")
	if err != nil {
		t.Fatalf("ReadBuild() error = %v", err)
	}
	if b.State != build.StateError || b.Error != AbandonedMessage {
		t.Errorf("abandoned build = %+v", b)
	}

	incomplete, err = s.FindIncompleteBuilds(ctx)
	if err != nil {
		t.Fatalf("FindIncompleteBuilds() error = %v", err)
	}
	if len(incomplete) != 0 {
		t.Errorf("incomplete after abandon = %+v", incomplete)
	}
}
