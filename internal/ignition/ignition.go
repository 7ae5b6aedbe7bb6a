// Package ignition models the agent lifecycle state machine and the
// chain-yield hand-off between successive agents (§4.6). All
// transitions are caller-driven through roster patches; none are
// time-based.
package ignition

import (
	"context"
	"fmt"
	"time"

	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/logstore"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

// legalTransitions enumerates the lifecycle edges a caller may request.
// There is no time-based or automatic transition; every entry here must
// be explicitly requested via Transition.
var legalTransitions = map[types.AgentStatus][]types.AgentStatus{
	types.AgentOrienting: {types.AgentActive, types.AgentRetiring},
	types.AgentActive:    {types.AgentRetiring},
	types.AgentRetiring:  {types.AgentRetired},
	types.AgentRetired:   {},
}

// ErrIllegalTransition is returned when a requested status change does
// not follow an edge in the lifecycle state machine.
type ErrIllegalTransition struct {
	From, To types.AgentStatus
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal agent lifecycle transition: %s -> %s", e.From, e.To)
}

// CanTransition reports whether moving an agent from `from` to `to` is
// a legal lifecycle edge.
func CanTransition(from, to types.AgentStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service coordinates roster lifecycle transitions and yield creation
// against the object store and log store of a single project.
type Service struct {
	roster    *objectstore.Store
	logs      *logstore.DB
	generator *idutil.CustomGenerator
}

// New returns a Service. generator may be nil to always use the
// default adjective-noun name generator.
func New(roster *objectstore.Store, logs *logstore.DB, generator *idutil.CustomGenerator) *Service {
	return &Service{roster: roster, logs: logs, generator: generator}
}

// IgniteRequest carries the context needed to name and register a new
// agent at ignition.
type IgniteRequest struct {
	Project      string
	Role         string
	Kind         types.AgentKind
	Description  string
	BriefContent string
	Capabilities []string
}

// Ignite registers a new roster entry in the orienting state, naming it
// via the configured generator (falling back to the default word-pool
// generator on any failure), and returns the created agent.
func (s *Service) Ignite(ctx context.Context, req IgniteRequest, now time.Time) (types.Agent, error) {
	existing, err := s.roster.GetAgents(nil)
	if err != nil {
		return types.Agent{}, fmt.Errorf("failed to read roster for name uniqueness check: %w", err)
	}

	existingNames := make(map[string]bool, len(existing))
	for _, a := range existing {
		existingNames[a.Name] = true
	}

	name := idutil.GenerateAgentName(ctx, s.generator, existingNames, req.Project, req.Role, req.BriefContent, now)

	agent := types.Agent{
		ID:           name,
		Name:         name,
		Kind:         req.Kind,
		Description:  req.Description,
		Capabilities: req.Capabilities,
		RegisteredAt: now.UTC(),
		Status:       types.AgentOrienting,
	}

	if err := s.roster.SaveAgent(agent); err != nil {
		return types.Agent{}, fmt.Errorf("failed to register ignited agent: %w", err)
	}
	return agent, nil
}

// Transition moves agentID to newStatus, rejecting edges the lifecycle
// state machine does not allow. When newStatus is retired and chainID
// is non-empty, a yield record is created for the chain before the
// roster status is committed, matching §4.6's "yield at retirement"
// rule. yield may be the zero value when chainID is empty.
func (s *Service) Transition(agentID string, newStatus types.AgentStatus, chainID string, yield types.Yield, now time.Time) (types.Agent, error) {
	agent, ok, err := s.roster.GetAgent(agentID)
	if err != nil {
		return types.Agent{}, fmt.Errorf("failed to load agent %s: %w", agentID, err)
	}
	if !ok {
		return types.Agent{}, fmt.Errorf("agent %q not found", agentID)
	}

	if !CanTransition(agent.Status, newStatus) {
		return types.Agent{}, &ErrIllegalTransition{From: agent.Status, To: newStatus}
	}

	if newStatus == types.AgentRetired && chainID != "" {
		yield.ChainID = chainID
		yield.AgentID = agentID
		if yield.ID == "" {
			yield.ID = idutil.NewYieldID(now)
		}
		if yield.Timestamp.IsZero() {
			yield.Timestamp = now.UTC()
		}
		if err := s.logs.AddYield(yield); err != nil {
			return types.Agent{}, fmt.Errorf("failed to record retirement yield: %w", err)
		}
	}

	agent.Status = newStatus
	if err := s.roster.SaveAgent(agent); err != nil {
		return types.Agent{}, fmt.Errorf("failed to persist lifecycle transition: %w", err)
	}
	return agent, nil
}
