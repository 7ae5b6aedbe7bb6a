package objectstore

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestSaveAndGetAgent(t *testing.T) {
	s := newTestStore(t)
	agent := types.Agent{ID: "amber-fox-0730", Status: types.AgentOrienting, RegisteredAt: time.Now()}

	if err := s.SaveAgent(agent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.GetAgent("amber-fox-0730")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected agent to be found")
	}
	if got.Status != types.AgentOrienting {
		t.Errorf("expected orienting status, got %v", got.Status)
	}
}

func TestSaveAgentUpserts(t *testing.T) {
	s := newTestStore(t)
	agent := types.Agent{ID: "amber-fox-0730", Status: types.AgentOrienting}
	if err := s.SaveAgent(agent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agent.Status = types.AgentActive
	if err := s.SaveAgent(agent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agents, err := s.GetAgents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected single agent after upsert, got %d", len(agents))
	}
	if agents[0].Status != types.AgentActive {
		t.Errorf("expected active status after upsert, got %v", agents[0].Status)
	}
}

func TestGetAgentsFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAgent(types.Agent{ID: "a", Status: types.AgentActive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveAgent(types.Agent{ID: "b", Status: types.AgentRetired}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := types.AgentActive
	agents, err := s.GetAgents(&active)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 1 || agents[0].ID != "a" {
		t.Errorf("expected only active agent a, got %+v", agents)
	}
}

func TestSaveFolioRequiresSite(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveFolio(types.Folio{ID: "issue-20260730-abcd", SiteID: "missing", Type: types.FolioIssue, Title: "hello there friend"})
	if err == nil {
		t.Fatal("expected error for missing site")
	}
	if _, ok := err.(*ErrSiteNotFound); !ok {
		t.Errorf("expected ErrSiteNotFound, got %T: %v", err, err)
	}
}

func TestSaveFolioComputesHashOnFirstWrite(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSite(types.Site{ID: "site-a", Purpose: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	folio := types.Folio{ID: "issue-20260730-abcd", SiteID: "site-a", Type: types.FolioIssue, Title: "a properly long title"}
	if err := s.SaveFolio(folio); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.GetFolio(folio.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected folio to be found")
	}
	if got.ContentHash == "" {
		t.Error("expected content hash to be computed")
	}
}

func TestMoveFolioRelocatesRecord(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSite(types.Site{ID: "site-a", Purpose: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveSite(types.Site{ID: "site-b", Purpose: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	folio := types.Folio{ID: "issue-20260730-abcd", SiteID: "site-a", Type: types.FolioIssue, Title: "a properly long title"}
	if err := s.SaveFolio(folio); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved, err := s.MoveFolio(folio.ID, "site-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.SiteID != "site-b" {
		t.Errorf("expected moved folio to reference site-b, got %q", moved.SiteID)
	}

	folios, err := s.GetFolios("site-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folios) != 0 {
		t.Errorf("expected source site to be empty after move, got %d folios", len(folios))
	}

	folios, err = s.GetFolios("site-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folios) != 1 {
		t.Errorf("expected destination site to hold the folio, got %d", len(folios))
	}
}

func TestMoveFolioFailsForMissingDestination(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSite(types.Site{ID: "site-a", Purpose: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	folio := types.Folio{ID: "issue-20260730-abcd", SiteID: "site-a", Type: types.FolioIssue, Title: "a properly long title"}
	if err := s.SaveFolio(folio); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.MoveFolio(folio.ID, "nonexistent"); err == nil {
		t.Error("expected error moving to nonexistent site")
	}
}

func TestThreadFilterAndMarkRead(t *testing.T) {
	s := newTestStore(t)
	thread := types.Thread{ID: "thread-20260730-abcd", FromID: "issue-20260730-abcd", ToID: "amber-fox-0730", Type: types.ThreadMessage, CreatedAt: time.Now()}
	if err := s.SaveThread(thread); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := s.GetThreads(ThreadFilter{ToID: "amber-fox-0730"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(found))
	}
	if found[0].ReadAt != nil {
		t.Error("expected thread to start unread")
	}

	ok, err := s.MarkThreadRead(thread.ID, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected MarkThreadRead to find the thread")
	}

	found, err = s.GetThreads(ThreadFilter{ToID: "amber-fox-0730"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found[0].ReadAt == nil {
		t.Error("expected thread to be marked read")
	}
}

func TestMarkThreadReadMissingThread(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.MarkThreadRead("thread-20260730-zzzz", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected false for missing thread")
	}
}
