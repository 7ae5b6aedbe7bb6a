package artifacts

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func TestPatchAgentMergesFields(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()

	agent := types.Agent{ID: "agent-bob", Name: "bob", Kind: types.KindClaudeCode, Status: types.AgentActive, RegisteredAt: now}
	if err := s.store.SaveAgent(agent); err != nil {
		t.Fatalf("SaveAgent: %v", err)
	}

	newName := "bob-the-builder"
	updated, err := s.PatchAgent("agent-bob", RosterPatch{
		Name:         &newName,
		Capabilities: []string{"go", "terraform"},
		Metadata:     map[string]interface{}{"region": "us-east"},
	}, now)
	if err != nil {
		t.Fatalf("PatchAgent: %v", err)
	}
	if updated.Name != "bob-the-builder" {
		t.Errorf("got name %q", updated.Name)
	}
	if len(updated.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities, got %v", updated.Capabilities)
	}
	if updated.Metadata["region"] != "us-east" {
		t.Errorf("expected metadata region to be merged, got %v", updated.Metadata)
	}
}

func TestPatchAgentRejectsUnknown(t *testing.T) {
	s := newTestService(t)
	_, err := s.PatchAgent("agent-ghost", RosterPatch{}, time.Now())
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestGetActivityReturnsRecentFoliosAndCreators(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	if _, err := s.CreateSite(CreateSiteRequest{ID: "core"}, now); err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	for i, creator := range []string{"alice", "bob", "alice"} {
		title := []string{"Implement OAuth token refresh flow", "Broken link in the onboarding guide", "Investigate slow database query"}[i]
		if _, err := s.CreateFolio(CreateFolioRequest{
			SiteID: "core", Type: types.FolioIssue, Title: title, CreatedBy: creator,
		}, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("CreateFolio: %v", err)
		}
	}

	feed, err := s.GetActivity()
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if len(feed.NewFolios) != 3 {
		t.Fatalf("expected 3 folios, got %d", len(feed.NewFolios))
	}
	if feed.NewFolios[0].CreatedBy != "alice" {
		t.Errorf("expected most recent folio first (alice), got %q", feed.NewFolios[0].CreatedBy)
	}
	if len(feed.ActiveAgents) != 2 {
		t.Errorf("expected 2 distinct creators, got %v", feed.ActiveAgents)
	}
}
