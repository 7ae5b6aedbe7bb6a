package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/types"
)

// handleSearch implements the unified search endpoint (§4.4.5, §6.1):
// `GET /search?q=&resources=&...`.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	req := artifacts.SearchRequest{
		Query:      q.Get("q"),
		Status:     q.Get("status"),
		Since:      q.Get("since"),
		Before:     q.Get("before"),
		FolioType:  types.FolioType(q.Get("folio_type")),
		Site:       q.Get("site"),
		AssignedTo: q.Get("assigned_to"),
		ThreadType: types.ThreadType(q.Get("thread_type")),
		Weaver:     q.Get("weaver"),
		FromID:     q.Get("from_id"),
		ToID:       q.Get("to_id"),
		AgentKind:  types.AgentKind(q.Get("agent_kind")),
		Sort:       q.Get("sort"),
	}
	if resources := q.Get("resources"); resources != "" {
		req.Resources = strings.Split(resources, ",")
	}
	if v := q.Get("include_archived"); v != "" {
		req.IncludeArchived, _ = strconv.ParseBool(v)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "limit must be an integer"})
			return
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "offset must be an integer"})
			return
		}
		req.Offset = n
	}

	result, err := proj.artifacts.Search(req, AgentID(r), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleActivity implements `GET /activity?since=`: the last 10 folios
// by recency and their distinct creators (§6.1).
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if v := r.URL.Query().Get("since"); v != "" {
		if _, err := idutil.ParseRelativeTime(v, time.Now()); err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: err.Error()})
			return
		}
	}

	feed, err := proj.artifacts.GetActivity()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
