package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

type createThreadRequest struct {
	FromID  string `json:"from_id"`
	ToID    string `json:"to_id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Weaver  string `json:"weaver"`
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	weaver := req.Weaver
	if weaver == "" {
		weaver = AgentID(r)
	}

	thread, err := proj.artifacts.CreateThread(artifacts.CreateThreadRequest{
		FromID: req.FromID, ToID: req.ToID, Type: types.ThreadType(req.Type), Content: req.Content, Weaver: weaver,
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.publishThread(ProjectID(r), thread)
	writeJSON(w, http.StatusCreated, thread)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := objectstore.ThreadFilter{
		FromID: q.Get("from_id"), ToID: q.Get("to_id"),
		Type: types.ThreadType(q.Get("type")), Weaver: q.Get("weaver"),
	}

	threads, err := proj.store.GetThreads(filter)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	var since *time.Time
	if v := q.Get("since"); v != "" {
		t, err := idutil.ParseRelativeTime(v, time.Now())
		if err != nil {
			writeError(w, r, &artifacts.ValidationError{Reason: err.Error()})
			return
		}
		since = &t
	}
	search := strings.ToLower(q.Get("search"))

	out := threads[:0:0]
	for _, t := range threads {
		if since != nil && t.CreatedAt.Before(*since) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Content), search) {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetInbox(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		unreadOnly, _ = strconv.ParseBool(v)
	}

	threads, err := proj.artifacts.GetInbox(AgentID(r), unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleMarkThreadRead(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	thread, err := proj.artifacts.MarkThreadRead(mux.Vars(r)["id"], time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}
