package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/spiritengine/skein/internal/artifacts"
)

const reviewQueueStaleDays = 7

type spawnShardRequest struct {
	Name        string `json:"name"`
	BriefID     string `json:"brief_id"`
	Description string `json:"description"`
}

// handleSpawnShard implements the shard-spawn endpoint (§4.7.3): not
// part of spec.md's §6.1 list, added per SPEC_FULL.md's supplemented
// HTTP surface for the shard subsystem under /shards.
func (s *Server) handleSpawnShard(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req spawnShardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := proj.shards.Spawn(req.Name, req.BriefID, req.Description, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListShards(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	shards, err := proj.shards.ListShards()
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, shards)
}

func (s *Server) handleGetShardStatus(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := mux.Vars(r)["name"]
	info, ok, err := proj.shards.GetShardStatus(name)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	if !ok {
		writeError(w, r, &notFoundError{reason: "shard " + name + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetShardDiff(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	diff, err := proj.shards.GetShardDiff(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(diff))
}

func (s *Server) handleGetShardDrift(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	drift, err := proj.shards.GetShardDriftInfo(mux.Vars(r)["name"], time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drift)
}

type cwdRequest struct {
	Cwd string `json:"cwd"`
}

// handleMergeShard and handleCleanupShard accept the caller's working
// directory in the body since the server process has no single cwd of
// its own — it is this value the is_inside fail-closed check (§8) runs
// against.
func (s *Server) handleMergeShard(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req cwdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := proj.shards.Merge(mux.Vars(r)["name"], req.Cwd); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type cleanupShardRequest struct {
	Cwd        string `json:"cwd"`
	KeepBranch bool   `json:"keep_branch"`
}

func (s *Server) handleCleanupShard(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req cleanupShardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := proj.shards.Cleanup(mux.Vars(r)["name"], req.Cwd, req.KeepBranch); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGraftShard(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := proj.shards.Graft(mux.Vars(r)["name"], time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetGraftChain(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	chain, err := proj.shards.GetGraftChain(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (s *Server) handleGetReviewQueue(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.resolve(ProjectID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	queue, err := proj.shards.BuildReviewQueue(time.Now(), reviewQueueStaleDays)
	if err != nil {
		writeError(w, r, &artifacts.Internal{Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, queue)
}
