package artifacts

import (
	"sort"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

// RosterPatch carries the optional fields a roster update may change
// (§4.8). A nil pointer leaves the field untouched.
type RosterPatch struct {
	Name         *string
	Kind         *types.AgentKind
	Status       *types.AgentStatus
	Description  *string
	Capabilities []string
	Metadata     map[string]interface{}
}

// PatchAgent merges patch into the roster entry for agentID, matching
// teacher internal/persistence/store.go's upsert-by-merge pattern:
// only present fields are touched, everything else on the stored
// record survives untouched.
func (s *Service) PatchAgent(agentID string, patch RosterPatch, now time.Time) (types.Agent, error) {
	agent, ok, err := s.store.GetAgent(agentID)
	if err != nil {
		return types.Agent{}, &Internal{Cause: err}
	}
	if !ok {
		return types.Agent{}, &ValidationError{Reason: "agent " + agentID + " not found"}
	}

	if patch.Name != nil {
		agent.Name = *patch.Name
	}
	if patch.Kind != nil {
		agent.Kind = *patch.Kind
	}
	if patch.Status != nil {
		agent.Status = *patch.Status
	}
	if patch.Description != nil {
		agent.Description = *patch.Description
	}
	if patch.Capabilities != nil {
		agent.Capabilities = patch.Capabilities
	}
	if patch.Metadata != nil {
		if agent.Metadata == nil {
			agent.Metadata = make(map[string]interface{}, len(patch.Metadata))
		}
		for k, v := range patch.Metadata {
			agent.Metadata[k] = v
		}
	}

	if err := s.store.SaveAgent(agent); err != nil {
		return types.Agent{}, &Internal{Cause: err}
	}
	return agent, nil
}

// ActivityFeed reports the 10 most recent folios and the distinct set
// of agents that created them (§6.1's "supplemented" activity feed,
// from original_source/skein/routes.py's recent-activity endpoint).
type ActivityFeed struct {
	NewFolios    []types.Folio
	ActiveAgents []string
}

// GetActivity returns the last 10 folios by recency across every site,
// with their distinct creators.
func (s *Service) GetActivity() (ActivityFeed, error) {
	folios, err := s.store.GetFolios("")
	if err != nil {
		return ActivityFeed{}, &Internal{Cause: err}
	}

	for i := range folios {
		hydrated, err := s.hydrateFolio(folios[i])
		if err != nil {
			return ActivityFeed{}, err
		}
		folios[i] = hydrated
	}

	sort.Slice(folios, func(i, j int) bool { return folios[i].CreatedAt.After(folios[j].CreatedAt) })

	if len(folios) > 10 {
		folios = folios[:10]
	}

	seen := make(map[string]bool)
	var creators []string
	for _, f := range folios {
		if f.CreatedBy != "" && !seen[f.CreatedBy] {
			seen[f.CreatedBy] = true
			creators = append(creators, f.CreatedBy)
		}
	}

	return ActivityFeed{NewFolios: folios, ActiveAgents: creators}, nil
}
