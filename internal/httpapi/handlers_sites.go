package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/types"
)

type createSiteRequest struct {
	SiteID    string                 `json:"site_id"`
	Purpose   string                 `json:"purpose"`
	CreatedBy string                 `json:"created_by"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = AgentID(r)
	}

	site, err := proj.artifacts.CreateSite(artifacts.CreateSiteRequest{
		ID: req.SiteID, Purpose: req.Purpose, CreatedBy: createdBy, Metadata: req.Metadata,
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	sites, err := proj.store.GetSites()
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	q := r.URL.Query()
	status := types.SiteStatus(q.Get("status"))
	tag := q.Get("tag")

	filtered := sites[:0:0]
	for _, site := range sites {
		if status != "" && site.Status != status {
			continue
		}
		if tag != "" {
			matched := false
			for _, t := range site.Tags() {
				if t == tag {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		filtered = append(filtered, site)
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	siteID := mux.Vars(r)["id"]
	site, ok, err := proj.store.GetSite(siteID)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &artifacts.SiteNotFound{SiteID: siteID})
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// handleListSiteFolios and handleCreateSiteFolio implement the
// site-scoped folio convenience routes (§6.1): GET/POST
// /sites/{id}/folios delegate to the same folio machinery as the
// top-level /folios routes, with site_id pinned from the path.
func (s *Server) handleListSiteFolios(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	siteID := mux.Vars(r)["id"]
	folios, err := proj.store.GetFolios(siteID)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	q := r.URL.Query()
	folioType := types.FolioType(q.Get("type"))
	var since *time.Time
	if v := q.Get("since"); v != "" {
		t, err := idutil.ParseRelativeTime(v, time.Now())
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: err.Error()})
			return
		}
		since = &t
	}

	out := folios[:0:0]
	for _, f := range folios {
		if folioType != "" && f.Type != folioType {
			continue
		}
		if since != nil && f.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, f)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSiteFolio(w http.ResponseWriter, r *http.Request) {
	siteID := mux.Vars(r)["id"]
	s.createFolio(w, r, siteID)
}
