package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/ignition"
	"github.com/spiritengine/skein/internal/types"
)

// registerRequest is the body of POST /roster/register (§4.6's
// ignition, surfaced over the wire).
type registerRequest struct {
	Role         string   `json:"role"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description"`
	BriefContent string   `json:"brief_content"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kind := types.AgentKind(req.Kind)
	if kind == "" {
		kind = types.KindUnknown
	}

	agent, err := proj.ignition.Ignite(r.Context(), ignition.IgniteRequest{
		Project: ProjectID(r), Role: req.Role, Kind: kind,
		Description: req.Description, BriefContent: req.BriefContent, Capabilities: req.Capabilities,
	}, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (s *Server) handleListRoster(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var statusFilter *types.AgentStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := types.AgentStatus(v)
		statusFilter = &st
	}

	agents, err := proj.store.GetAgents(statusFilter)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	agentID := mux.Vars(r)["id"]
	agent, ok, err := proj.store.GetAgent(agentID)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &notFoundError{reason: "agent " + agentID + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type rosterPatchRequest struct {
	Name         *string                `json:"name"`
	Kind         *string                `json:"kind"`
	Status       *string                `json:"status"`
	Description  *string                `json:"description"`
	Capabilities []string               `json:"capabilities"`
	Metadata     map[string]interface{} `json:"metadata"`
}

func (s *Server) handlePatchAgent(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req rosterPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := artifacts.RosterPatch{
		Name: req.Name, Description: req.Description,
		Capabilities: req.Capabilities, Metadata: req.Metadata,
	}
	if req.Kind != nil {
		k := types.AgentKind(*req.Kind)
		patch.Kind = &k
	}
	if req.Status != nil {
		st := types.AgentStatus(*req.Status)
		patch.Status = &st
	}

	agent, err := proj.artifacts.PatchAgent(mux.Vars(r)["id"], patch, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}
