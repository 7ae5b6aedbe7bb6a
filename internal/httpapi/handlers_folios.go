package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/types"
)

type createFolioRequest struct {
	SiteID        string                 `json:"site_id"`
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	Content       string                 `json:"content"`
	CreatedBy     string                 `json:"created_by"`
	TargetAgent   string                 `json:"target_agent"`
	SuccessorHint string                 `json:"successor_hint"`
	TraceRef      string                 `json:"trace_ref"`
	AssignedTo    string                 `json:"assigned_to"`
	Metadata      map[string]interface{} `json:"metadata"`
}

func (s *Server) handleCreateFolio(w http.ResponseWriter, r *http.Request) {
	s.createFolio(w, r, "")
}

// createFolio is shared by POST /folios and POST /sites/{id}/folios;
// forcedSiteID overrides the body's site_id when called from the
// site-scoped route.
func (s *Server) createFolio(w http.ResponseWriter, r *http.Request, forcedSiteID string) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createFolioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	siteID := req.SiteID
	if forcedSiteID != "" {
		siteID = forcedSiteID
	}
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = AgentID(r)
	}

	folio, err := proj.artifacts.CreateFolio(artifacts.CreateFolioRequest{
		SiteID: siteID, Type: types.FolioType(req.Type), Title: req.Title, Content: req.Content,
		CreatedBy: createdBy, TargetAgent: req.TargetAgent, SuccessorHint: req.SuccessorHint,
		TraceRef: req.TraceRef, AssignedTo: req.AssignedTo, Metadata: req.Metadata,
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.publishFolio(ProjectID(r), folio)
	writeJSON(w, http.StatusCreated, folio)
}

func (s *Server) handleListFolios(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	folios, err := proj.store.GetFolios("")
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	q := r.URL.Query()
	folioType := types.FolioType(q.Get("type"))
	siteID := q.Get("site_id")
	assignedTo := q.Get("assigned_to")
	status := q.Get("status")
	var archived *bool
	if v := q.Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "archived must be true or false"})
			return
		}
		archived = &b
	}

	out := folios[:0:0]
	for _, f := range folios {
		if folioType != "" && f.Type != folioType {
			continue
		}
		if siteID != "" && f.SiteID != siteID {
			continue
		}
		if archived != nil && f.Archived != *archived {
			continue
		}
		hydrated, err := proj.artifacts.GetFolio(f.ID)
		if err != nil {
			continue
		}
		if assignedTo != "" && hydrated.AssignedTo != assignedTo {
			continue
		}
		if status != "" && hydrated.Status != status {
			continue
		}
		out = append(out, hydrated)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearchFolios(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := proj.artifacts.Search(artifacts.SearchRequest{
		Query: q.Get("q"), Resources: []string{"folios"},
		FolioType: types.FolioType(q.Get("type")), Status: q.Get("status"),
	}, AgentID(r), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Results["folios"])
}

func (s *Server) handleGetFolio(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	folioID := mux.Vars(r)["id"]
	folio, err := proj.artifacts.GetFolio(folioID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folio)
}

type folioPatchRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Archived   *bool   `json:"archived"`
	Status     *string `json:"status"`
	AssignedTo *string `json:"assigned_to"`
}

func (s *Server) handlePatchFolio(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req folioPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	folio, err := proj.artifacts.UpdateFolio(mux.Vars(r)["id"], artifacts.FolioPatch{
		Title: req.Title, Content: req.Content, Archived: req.Archived,
		Status: req.Status, AssignedTo: req.AssignedTo, Weaver: AgentID(r),
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.publishFolio(ProjectID(r), folio)
	writeJSON(w, http.StatusOK, folio)
}
