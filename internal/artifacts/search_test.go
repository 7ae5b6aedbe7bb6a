package artifacts

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func seedSearchFixture(t *testing.T, s *Service, now time.Time) {
	t.Helper()
	if _, err := s.CreateSite(CreateSiteRequest{ID: "core", Purpose: "main repo"}, now); err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if _, err := s.CreateSite(CreateSiteRequest{ID: "docs", Purpose: "documentation site"}, now); err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if _, err := s.CreateFolio(CreateFolioRequest{
		SiteID: "core", Type: types.FolioBrief, Title: "Implement OAuth token refresh flow",
		Content: "covers the auth service", CreatedBy: "alice",
	}, now); err != nil {
		t.Fatalf("CreateFolio: %v", err)
	}
	if _, err := s.CreateFolio(CreateFolioRequest{
		SiteID: "docs", Type: types.FolioIssue, Title: "Broken link in the onboarding guide",
		Content: "unrelated to auth", CreatedBy: "bob",
	}, now.Add(time.Minute)); err != nil {
		t.Fatalf("CreateFolio: %v", err)
	}
}

func TestSearchFiltersByQueryAndSite(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	seedSearchFixture(t, s, now)

	result, err := s.Search(SearchRequest{Query: "auth", Site: "core", Resources: []string{"folios"}}, "", now)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	folioResult := result.Results["folios"]
	if folioResult.Total != 1 {
		t.Fatalf("expected 1 match, got %d", folioResult.Total)
	}
	items, ok := folioResult.Items.([]types.Folio)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items: %#v", folioResult.Items)
	}
	if items[0].SiteID != "core" {
		t.Errorf("expected match from core site, got %q", items[0].SiteID)
	}
}

func TestSearchRejectsUnknownResource(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	_, err := s.Search(SearchRequest{Resources: []string{"bogus"}}, "", now)
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestSearchPaginatesResults(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	seedSearchFixture(t, s, now)

	result, err := s.Search(SearchRequest{Resources: []string{"folios"}, Limit: 1, Offset: 0}, "", now)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	folioResult := result.Results["folios"]
	if folioResult.Total != 2 {
		t.Fatalf("expected total 2, got %d", folioResult.Total)
	}
	items := folioResult.Items.([]types.Folio)
	if len(items) != 1 {
		t.Fatalf("expected page of 1, got %d", len(items))
	}
}

func TestSearchSitesByQuery(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	seedSearchFixture(t, s, now)

	result, err := s.Search(SearchRequest{Query: "documentation", Resources: []string{"sites"}}, "", now)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	siteResult := result.Results["sites"]
	items := siteResult.Items.([]types.Site)
	if len(items) != 1 || items[0].ID != "docs" {
		t.Fatalf("expected docs site match, got %#v", items)
	}
}
