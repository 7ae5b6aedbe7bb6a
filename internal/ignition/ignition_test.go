package ignition

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/logstore"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	roster := objectstore.New(t.TempDir())
	logs, err := logstore.Open(filepath.Join(t.TempDir(), "skein.db"))
	if err != nil {
		t.Fatalf("failed to open log store: %v", err)
	}
	t.Cleanup(func() { logs.Close() })
	return New(roster, logs, nil)
}

func TestIgniteRegistersOrientingAgent(t *testing.T) {
	s := newTestService(t)
	agent, err := s.Ignite(context.Background(), IgniteRequest{Project: "skein", Role: "fixer"}, time.Now())
	if err != nil {
		t.Fatalf("Ignite failed: %v", err)
	}
	if agent.Status != types.AgentOrienting {
		t.Errorf("expected orienting status, got %v", agent.Status)
	}
	if agent.Name == "" {
		t.Error("expected a generated name")
	}
}

func TestCanTransitionFollowsLifecycle(t *testing.T) {
	cases := []struct {
		from, to types.AgentStatus
		want     bool
	}{
		{types.AgentOrienting, types.AgentActive, true},
		{types.AgentOrienting, types.AgentRetiring, true},
		{types.AgentOrienting, types.AgentRetired, false},
		{types.AgentActive, types.AgentRetiring, true},
		{types.AgentActive, types.AgentOrienting, false},
		{types.AgentRetiring, types.AgentRetired, true},
		{types.AgentRetired, types.AgentActive, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	s := newTestService(t)
	agent, err := s.Ignite(context.Background(), IgniteRequest{Project: "skein", Role: "fixer"}, time.Now())
	if err != nil {
		t.Fatalf("Ignite failed: %v", err)
	}

	_, err = s.Transition(agent.ID, types.AgentRetired, "", types.Yield{}, time.Now())
	if err == nil {
		t.Fatal("expected error transitioning straight to retired")
	}
	if _, ok := err.(*ErrIllegalTransition); !ok {
		t.Errorf("expected ErrIllegalTransition, got %T: %v", err, err)
	}
}

func TestTransitionToRetiredWithChainCreatesYield(t *testing.T) {
	s := newTestService(t)
	agent, err := s.Ignite(context.Background(), IgniteRequest{Project: "skein", Role: "fixer"}, time.Now())
	if err != nil {
		t.Fatalf("Ignite failed: %v", err)
	}

	now := time.Now()
	if _, err := s.Transition(agent.ID, types.AgentRetiring, "", types.Yield{}, now); err != nil {
		t.Fatalf("transition to retiring failed: %v", err)
	}

	got, err := s.Transition(agent.ID, types.AgentRetired, "chain-1", types.Yield{
		Status:  types.YieldComplete,
		Outcome: "fixed the bug",
	}, now)
	if err != nil {
		t.Fatalf("transition to retired failed: %v", err)
	}
	if got.Status != types.AgentRetired {
		t.Errorf("expected retired status, got %v", got.Status)
	}

	yields, err := s.logs.GetChainYields("chain-1")
	if err != nil {
		t.Fatalf("GetChainYields failed: %v", err)
	}
	if len(yields) != 1 || yields[0].AgentID != agent.ID {
		t.Errorf("expected one yield recorded for %s, got %+v", agent.ID, yields)
	}
}

func TestTransitionToRetiredWithoutChainSkipsYield(t *testing.T) {
	s := newTestService(t)
	agent, err := s.Ignite(context.Background(), IgniteRequest{Project: "skein", Role: "fixer"}, time.Now())
	if err != nil {
		t.Fatalf("Ignite failed: %v", err)
	}
	now := time.Now()
	s.Transition(agent.ID, types.AgentRetiring, "", types.Yield{}, now)

	if _, err := s.Transition(agent.ID, types.AgentRetired, "", types.Yield{}, now); err != nil {
		t.Fatalf("transition to retired failed: %v", err)
	}

	yields, err := s.logs.GetAgentYields(agent.ID)
	if err != nil {
		t.Fatalf("GetAgentYields failed: %v", err)
	}
	if len(yields) != 0 {
		t.Errorf("expected no yield without a chain id, got %+v", yields)
	}
}
