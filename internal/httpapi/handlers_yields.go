package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/types"
)

type createYieldRequest struct {
	ChainID    string                 `json:"chain_id"`
	TaskID     string                 `json:"task_id"`
	AgentID    string                 `json:"agent_id"`
	Status     string                 `json:"status"`
	Outcome    string                 `json:"outcome"`
	Artifacts  []string               `json:"artifacts"`
	Notes      string                 `json:"notes"`
	Enrichment *types.YieldEnrichment `json:"enrichment"`
	Metadata   map[string]interface{} `json:"metadata"`
	NextStatus string                 `json:"next_status"`
}

// handleCreateYield implements `POST /yields` (§4.6, §6.1): persist the
// hand-off record, then drive the outgoing agent's lifecycle transition
// if next_status was supplied.
func (s *Server) handleCreateYield(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createYieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ChainID == "" {
		writeError(w, r, &artifacts.ValidationError{Reason: "chain_id is required"})
		return
	}

	now := time.Now()
	agentID := req.AgentID
	if agentID == "" {
		agentID = AgentID(r)
	}
	yield := types.Yield{
		ID: idutil.NewYieldID(now), ChainID: req.ChainID, TaskID: req.TaskID, AgentID: agentID,
		Timestamp: now.UTC(), Status: types.YieldStatus(req.Status), Outcome: req.Outcome,
		Artifacts: req.Artifacts, Notes: req.Notes, Enrichment: req.Enrichment, Metadata: req.Metadata,
	}
	if err := proj.logs.AddYield(yield); err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}

	if req.NextStatus != "" && agentID != "" {
		// The yield is already persisted above, so Transition gets no
		// chain id and does not insert it a second time.
		if _, err := proj.ignition.Transition(agentID, types.AgentStatus(req.NextStatus), "", types.Yield{}, now); err != nil {
			writeError(w, r, err)
			return
		}
	}

	s.publishYield(ProjectID(r), yield)
	writeJSON(w, http.StatusCreated, yield)
}

func (s *Server) handleGetYieldChain(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	yields, err := proj.logs.GetChainYields(mux.Vars(r)["chain_id"])
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, yields)
}

func (s *Server) handleGetYield(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	yield, ok, err := proj.logs.GetYield(mux.Vars(r)["sack_id"])
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &notFoundError{reason: "yield not found"})
		return
	}
	writeJSON(w, http.StatusOK, yield)
}

func (s *Server) handleGetYieldsByStatus(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	yields, err := proj.logs.GetYieldsByStatus(types.YieldStatus(mux.Vars(r)["status"]))
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, yields)
}

func (s *Server) handleGetAgentYields(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	yields, err := proj.logs.GetAgentYields(mux.Vars(r)["agent_id"])
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, yields)
}
