package artifacts

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

var validResources = map[string]bool{"folios": true, "threads": true, "agents": true, "sites": true}

// SearchRequest is the unified search operation's input (§4.4.5).
type SearchRequest struct {
	Query     string
	Resources []string

	Status string
	Since  string
	Before string

	FolioType       types.FolioType
	Site            string
	SitePatterns    []string
	AssignedTo      string
	IncludeArchived bool

	ThreadType types.ThreadType
	Weaver     string
	FromID     string
	ToID       string

	AgentKind    types.AgentKind
	Capabilities []string

	Sort   string
	Limit  int
	Offset int
}

// ResourceResult is one resource type's slice of a search response.
type ResourceResult struct {
	Total int
	Items interface{}
}

// SearchResult is the unified search operation's output.
type SearchResult struct {
	Query           string
	Resources       []string
	Total           int
	Results         map[string]ResourceResult
	ExecutionTimeMS int64
}

// Search runs req across every requested resource type: load all
// records, apply the text query, apply filters, sort, paginate, and
// report {total, items} per type (§4.4.5). Grounded on
// original_source/skein/routes.py's unified_search and teacher
// internal/memory/assignments.go's filter-and-merge idiom.
func (s *Service) Search(req SearchRequest, callerAgentID string, now time.Time) (SearchResult, error) {
	start := now

	resources := req.Resources
	if len(resources) == 0 {
		resources = []string{"folios"}
	}
	for _, r := range resources {
		if !validResources[r] {
			return SearchResult{}, &ValidationError{Reason: "invalid resource type: " + r}
		}
	}

	weaver := req.Weaver
	if weaver == "me" && callerAgentID != "" {
		weaver = callerAgentID
	}

	var since, before *time.Time
	if req.Since != "" {
		t, err := idutil.ParseRelativeTime(req.Since, now)
		if err != nil {
			return SearchResult{}, &ValidationError{Reason: "invalid since: " + err.Error()}
		}
		since = &t
	}
	if req.Before != "" {
		t, err := idutil.ParseRelativeTime(req.Before, now)
		if err != nil {
			return SearchResult{}, &ValidationError{Reason: "invalid before: " + err.Error()}
		}
		before = &t
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results := make(map[string]ResourceResult)
	total := 0

	for _, r := range resources {
		switch r {
		case "folios":
			items, n, err := s.searchFolios(req, since, before, limit)
			if err != nil {
				return SearchResult{}, err
			}
			results["folios"] = ResourceResult{Total: n, Items: items}
			total += n
		case "threads":
			items, n, err := s.searchThreads(req, weaver, since, before, limit)
			if err != nil {
				return SearchResult{}, err
			}
			results["threads"] = ResourceResult{Total: n, Items: items}
			total += n
		case "agents":
			items, n, err := s.searchAgents(req, since, before, limit)
			if err != nil {
				return SearchResult{}, err
			}
			results["agents"] = ResourceResult{Total: n, Items: items}
			total += n
		case "sites":
			items, n, err := s.searchSites(req, since, before, limit)
			if err != nil {
				return SearchResult{}, err
			}
			results["sites"] = ResourceResult{Total: n, Items: items}
			total += n
		}
	}

	return SearchResult{
		Query:           req.Query,
		Resources:       resources,
		Total:           total,
		Results:         results,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (s *Service) searchFolios(req SearchRequest, since, before *time.Time, limit int) ([]types.Folio, int, error) {
	folios, err := s.store.GetFolios("")
	if err != nil {
		return nil, 0, &Internal{Cause: err}
	}

	for i := range folios {
		hydrated, err := s.hydrateFolio(folios[i])
		if err != nil {
			return nil, 0, err
		}
		folios[i] = hydrated
	}

	q := strings.ToLower(req.Query)
	var filtered []types.Folio
	for _, f := range folios {
		if q != "" && !strings.Contains(strings.ToLower(f.Title), q) && !strings.Contains(strings.ToLower(f.Content), q) {
			continue
		}
		if req.FolioType != "" && f.Type != req.FolioType {
			continue
		}
		if req.Site != "" && f.SiteID != req.Site {
			continue
		}
		if len(req.SitePatterns) > 0 && !matchesAnyGlob(f.SiteID, req.SitePatterns) {
			continue
		}
		if req.Status != "" && f.Status != req.Status {
			continue
		}
		if req.AssignedTo != "" && f.AssignedTo != req.AssignedTo {
			continue
		}
		if !req.IncludeArchived && f.Archived {
			continue
		}
		if since != nil && f.CreatedAt.Before(*since) {
			continue
		}
		if before != nil && !f.CreatedAt.Before(*before) {
			continue
		}
		filtered = append(filtered, f)
	}

	switch req.Sort {
	case "created_asc":
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.Before(filtered[j].CreatedAt) })
	case "relevance":
		if q != "" {
			sort.SliceStable(filtered, func(i, j int) bool {
				return folioRelevance(filtered[i], q) > folioRelevance(filtered[j], q)
			})
			break
		}
		fallthrough
	default:
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	}

	total := len(filtered)
	return paginate(filtered, req.Offset, limit), total, nil
}

func folioRelevance(f types.Folio, qLower string) int {
	score := 0
	if strings.Contains(strings.ToLower(f.Title), qLower) {
		score += 10
	}
	if strings.Contains(strings.ToLower(f.Content), qLower) {
		score += 1
	}
	return score
}

func (s *Service) searchThreads(req SearchRequest, weaver string, since, before *time.Time, limit int) ([]types.Thread, int, error) {
	threads, err := s.store.GetThreads(objectstore.ThreadFilter{})
	if err != nil {
		return nil, 0, &Internal{Cause: err}
	}

	q := strings.ToLower(req.Query)
	var filtered []types.Thread
	for _, t := range threads {
		if q != "" && !strings.Contains(strings.ToLower(t.Content), q) {
			continue
		}
		if req.ThreadType != "" && t.Type != req.ThreadType {
			continue
		}
		if weaver != "" && t.Weaver != weaver {
			continue
		}
		if req.FromID != "" && t.FromID != req.FromID {
			continue
		}
		if req.ToID != "" && t.ToID != req.ToID {
			continue
		}
		if since != nil && t.CreatedAt.Before(*since) {
			continue
		}
		if before != nil && !t.CreatedAt.Before(*before) {
			continue
		}
		filtered = append(filtered, t)
	}

	if req.Sort == "created_asc" {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.Before(filtered[j].CreatedAt) })
	} else {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	}

	total := len(filtered)
	return paginate(filtered, req.Offset, limit), total, nil
}

func (s *Service) searchAgents(req SearchRequest, since, before *time.Time, limit int) ([]types.Agent, int, error) {
	agents, err := s.store.GetAgents(nil)
	if err != nil {
		return nil, 0, &Internal{Cause: err}
	}

	q := strings.ToLower(req.Query)
	var filtered []types.Agent
	for _, a := range agents {
		if q != "" {
			matched := strings.Contains(strings.ToLower(a.ID), q) || strings.Contains(strings.ToLower(a.Name), q)
			if !matched {
				for _, cap := range a.Capabilities {
					if strings.Contains(strings.ToLower(cap), q) {
						matched = true
						break
					}
				}
			}
			if !matched {
				continue
			}
		}
		if req.AgentKind != "" && a.Kind != req.AgentKind {
			continue
		}
		if len(req.Capabilities) > 0 && !hasAllCapabilities(a.Capabilities, req.Capabilities) {
			continue
		}
		if req.Status != "" && string(a.Status) != req.Status {
			continue
		}
		if since != nil && a.RegisteredAt.Before(*since) {
			continue
		}
		if before != nil && !a.RegisteredAt.Before(*before) {
			continue
		}
		filtered = append(filtered, a)
	}

	if req.Sort == "created_asc" {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].RegisteredAt.Before(filtered[j].RegisteredAt) })
	} else {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].RegisteredAt.After(filtered[j].RegisteredAt) })
	}

	total := len(filtered)
	return paginate(filtered, req.Offset, limit), total, nil
}

func (s *Service) searchSites(req SearchRequest, since, before *time.Time, limit int) ([]types.Site, int, error) {
	sites, err := s.store.GetSites()
	if err != nil {
		return nil, 0, &Internal{Cause: err}
	}

	q := strings.ToLower(req.Query)
	var filtered []types.Site
	for _, site := range sites {
		if q != "" && !strings.Contains(strings.ToLower(site.ID), q) && !strings.Contains(strings.ToLower(site.Purpose), q) {
			continue
		}
		if req.Status != "" && string(site.Status) != req.Status {
			continue
		}
		if since != nil && site.CreatedAt.Before(*since) {
			continue
		}
		if before != nil && !site.CreatedAt.Before(*before) {
			continue
		}
		filtered = append(filtered, site)
	}

	if req.Sort == "created_asc" {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.Before(filtered[j].CreatedAt) })
	} else {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	}

	total := len(filtered)
	return paginate(filtered, req.Offset, limit), total, nil
}

func matchesAnyGlob(value string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, value); ok {
			return true
		}
	}
	return false
}

func hasAllCapabilities(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	for _, c := range want {
		if !set[c] {
			return false
		}
	}
	return true
}
