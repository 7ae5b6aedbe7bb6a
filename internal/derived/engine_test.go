package derived

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

type fakeSource struct {
	threads []types.Thread
}

func (f *fakeSource) GetThreads(filter objectstore.ThreadFilter) ([]types.Thread, error) {
	var out []types.Thread
	for _, t := range f.threads {
		if filter.FromID != "" && t.FromID != filter.FromID {
			continue
		}
		if filter.ToID != "" && t.ToID != filter.ToID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func TestCurrentStatusReturnsLatest(t *testing.T) {
	now := time.Now()
	src := &fakeSource{threads: []types.Thread{
		{ID: "t1", ToID: "issue-1", Type: types.ThreadStatus, Content: "open", CreatedAt: now.Add(-time.Hour)},
		{ID: "t2", ToID: "issue-1", Type: types.ThreadStatus, Content: "resolved", CreatedAt: now},
	}}

	e := New(src)
	status, ok, err := e.CurrentStatus("issue-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected status to be found")
	}
	if status != "resolved" {
		t.Errorf("expected resolved, got %q", status)
	}
}

func TestCurrentStatusNoThreads(t *testing.T) {
	e := New(&fakeSource{})
	_, ok, err := e.CurrentStatus("issue-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no status when there are no threads")
	}
}

func TestCurrentAssignmentReturnsLatestTarget(t *testing.T) {
	now := time.Now()
	src := &fakeSource{threads: []types.Thread{
		{ID: "t1", FromID: "issue-1", ToID: "amber-fox", Type: types.ThreadAssignment, CreatedAt: now.Add(-time.Hour)},
		{ID: "t2", FromID: "issue-1", ToID: "blue-wren", Type: types.ThreadAssignment, CreatedAt: now},
	}}

	e := New(src)
	agent, ok, err := e.CurrentAssignment("issue-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || agent != "blue-wren" {
		t.Errorf("expected blue-wren, got %q (ok=%v)", agent, ok)
	}
}

func TestCacheServesStaleValueUntilInvalidated(t *testing.T) {
	src := &fakeSource{threads: []types.Thread{
		{ID: "t1", ToID: "issue-1", Type: types.ThreadStatus, Content: "open", CreatedAt: time.Now()},
	}}
	e := New(src)

	status, _, _ := e.CurrentStatus("issue-1")
	if status != "open" {
		t.Fatalf("expected open, got %q", status)
	}

	src.threads = append(src.threads, types.Thread{
		ID: "t2", ToID: "issue-1", Type: types.ThreadStatus, Content: "closed", CreatedAt: time.Now().Add(time.Hour),
	})

	cached, _, _ := e.CurrentStatus("issue-1")
	if cached != "open" {
		t.Errorf("expected cached value to persist until invalidated, got %q", cached)
	}

	e.InvalidateStatus("issue-1")

	fresh, _, _ := e.CurrentStatus("issue-1")
	if fresh != "closed" {
		t.Errorf("expected fresh value after invalidation, got %q", fresh)
	}
}

func TestAutoInvalidateStatusThread(t *testing.T) {
	e := New(&fakeSource{})
	e.statusCache["issue-1"] = "stale"

	e.AutoInvalidate(types.Thread{Type: types.ThreadStatus, ToID: "issue-1"})

	if _, hit := e.statusCache["issue-1"]; hit {
		t.Error("expected status cache entry to be invalidated")
	}
}

func TestAutoInvalidateAssignmentThread(t *testing.T) {
	e := New(&fakeSource{})
	e.assignmentCache["issue-1"] = "stale-agent"

	e.AutoInvalidate(types.Thread{Type: types.ThreadAssignment, FromID: "issue-1"})

	if _, hit := e.assignmentCache["issue-1"]; hit {
		t.Error("expected assignment cache entry to be invalidated")
	}
}

func TestAutoInvalidateIgnoresOtherThreadTypes(t *testing.T) {
	e := New(&fakeSource{})
	e.statusCache["issue-1"] = "open"

	e.AutoInvalidate(types.Thread{Type: types.ThreadMessage, ToID: "issue-1"})

	if _, hit := e.statusCache["issue-1"]; !hit {
		t.Error("expected message threads not to invalidate the status cache")
	}
}
