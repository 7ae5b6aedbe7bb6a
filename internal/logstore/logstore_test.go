package logstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "skein.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAndGetLogs(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	n, err := db.AddLogs("strand-1", "agent", []LogInput{
		{Level: "INFO", Message: "started up"},
		{Level: "ERROR", Message: "boom"},
	}, now)
	if err != nil {
		t.Fatalf("AddLogs failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 lines written, got %d", n)
	}

	lines, err := db.GetLogs("strand-1", LogQuery{})
	if err != nil {
		t.Fatalf("GetLogs failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Message != "boom" {
		t.Errorf("expected newest-first order, got %q first", lines[0].Message)
	}
}

func TestGetLogsFiltersByLevel(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	db.AddLogs("strand-1", "agent", []LogInput{
		{Level: "INFO", Message: "a"},
		{Level: "ERROR", Message: "b"},
	}, now)

	lines, err := db.GetLogs("strand-1", LogQuery{Level: "ERROR"})
	if err != nil {
		t.Fatalf("GetLogs failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Message != "b" {
		t.Errorf("expected only ERROR line, got %+v", lines)
	}
}

func TestGetLogsFullTextSearch(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	db.AddLogs("strand-1", "agent", []LogInput{
		{Message: "connecting to upstream service"},
		{Message: "request completed successfully"},
	}, now)

	lines, err := db.GetLogs("strand-1", LogQuery{Search: "upstream"})
	if err != nil {
		t.Fatalf("GetLogs search failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Message != "connecting to upstream service" {
		t.Errorf("expected one matching line, got %+v", lines)
	}
}

func TestGetStreamsAggregates(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	db.AddLogs("strand-1", "agent", []LogInput{{Message: "a"}, {Message: "b"}}, now)
	db.AddLogs("strand-2", "agent", []LogInput{{Message: "c"}}, now.Add(time.Minute))

	streams, err := db.GetStreams()
	if err != nil {
		t.Fatalf("GetStreams failed: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}
	if streams[0].StreamID != "strand-2" {
		t.Errorf("expected most-recently-active stream first, got %q", streams[0].StreamID)
	}
	if streams[0].LineCount != 1 {
		t.Errorf("expected strand-2 line count 1, got %d", streams[0].LineCount)
	}
}

func TestAddAndGetScreenshot(t *testing.T) {
	db := setupTestDB(t)
	turn := 3
	shot := types.Screenshot{
		ID:        "shot-1",
		StrandID:  "strand-1",
		Timestamp: time.Now(),
		Turn:      &turn,
		Label:     "before fix",
		Path:      "/data/shots/shot-1.png",
		Size:      1024,
	}
	if err := db.AddScreenshot(shot); err != nil {
		t.Fatalf("AddScreenshot failed: %v", err)
	}

	got, ok, err := db.GetScreenshot("shot-1")
	if err != nil {
		t.Fatalf("GetScreenshot failed: %v", err)
	}
	if !ok {
		t.Fatal("expected screenshot to be found")
	}
	if got.Label != "before fix" || got.Size != 1024 {
		t.Errorf("unexpected screenshot record: %+v", got)
	}
}

func TestGetScreenshotsFiltersByStrandAndSince(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	db.AddScreenshot(types.Screenshot{ID: "a", StrandID: "s1", Timestamp: now.Add(-time.Hour), Path: "a.png"})
	db.AddScreenshot(types.Screenshot{ID: "b", StrandID: "s1", Timestamp: now, Path: "b.png"})
	db.AddScreenshot(types.Screenshot{ID: "c", StrandID: "s2", Timestamp: now, Path: "c.png"})

	since := now.Add(-time.Minute)
	shots, err := db.GetScreenshots(ScreenshotQuery{StrandID: "s1", Since: &since})
	if err != nil {
		t.Fatalf("GetScreenshots failed: %v", err)
	}
	if len(shots) != 1 || shots[0].ID != "b" {
		t.Errorf("expected only recent s1 screenshot, got %+v", shots)
	}
}

func TestYieldChainOrdering(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	first := types.Yield{ID: "yield-1", ChainID: "chain-1", Status: types.YieldComplete, Timestamp: now}
	second := types.Yield{ID: "yield-2", ChainID: "chain-1", Status: types.YieldPartial, Timestamp: now.Add(time.Hour)}

	if err := db.AddYield(first); err != nil {
		t.Fatalf("AddYield failed: %v", err)
	}
	if err := db.AddYield(second); err != nil {
		t.Fatalf("AddYield failed: %v", err)
	}

	chain, err := db.GetChainYields("chain-1")
	if err != nil {
		t.Fatalf("GetChainYields failed: %v", err)
	}
	if len(chain) != 2 || chain[0].ID != "yield-1" || chain[1].ID != "yield-2" {
		t.Errorf("expected chronological chain order, got %+v", chain)
	}

	prev, ok, err := db.GetPreviousYield("chain-1", second)
	if err != nil {
		t.Fatalf("GetPreviousYield failed: %v", err)
	}
	if !ok || prev.ID != "yield-1" {
		t.Errorf("expected yield-1 as predecessor, got %+v (ok=%v)", prev, ok)
	}
}

func TestGetYieldsByStatusAndAgent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	db.AddYield(types.Yield{ID: "yield-1", ChainID: "c1", AgentID: "amber-fox", Status: types.YieldComplete, Timestamp: now})
	db.AddYield(types.Yield{ID: "yield-2", ChainID: "c1", AgentID: "blue-wren", Status: types.YieldBlocked, Timestamp: now})

	byStatus, err := db.GetYieldsByStatus(types.YieldBlocked)
	if err != nil {
		t.Fatalf("GetYieldsByStatus failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "yield-2" {
		t.Errorf("expected only blocked yield, got %+v", byStatus)
	}

	byAgent, err := db.GetAgentYields("amber-fox")
	if err != nil {
		t.Fatalf("GetAgentYields failed: %v", err)
	}
	if len(byAgent) != 1 || byAgent[0].ID != "yield-1" {
		t.Errorf("expected only amber-fox yield, got %+v", byAgent)
	}
}
