package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/logstore"
)

type addLogsRequest struct {
	Source string              `json:"source"`
	Lines  []logstore.LogInput `json:"lines"`
}

func (s *Server) handleAddLogs(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addLogsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	streamID := r.URL.Query().Get("stream")
	if streamID == "" {
		streamID = AgentID(r)
	}
	if streamID == "" {
		writeError(w, r, &artifacts.ValidationError{Reason: "a stream id is required, via ?stream= or the agent header"})
		return
	}

	count, err := proj.logs.AddLogs(streamID, req.Source, req.Lines, time.Now())
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"written": count})
}

func (s *Server) handleListLogStreams(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	streams, err := proj.logs.GetStreams()
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, streams)
}

func (s *Server) handleGetLogStream(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	query := logstore.LogQuery{Level: q.Get("level"), Search: q.Get("search")}
	if v := q.Get("since"); v != "" {
		t, err := idutil.ParseRelativeTime(v, time.Now())
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: err.Error()})
			return
		}
		query.Since = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: "limit must be an integer"})
			return
		}
		query.Limit = n
	}

	lines, err := proj.logs.GetLogs(mux.Vars(r)["stream"], query)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, lines)
}
