package logstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRotateStreamArchivesOldestRowsAndLeavesRecentOnes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "skein.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.conn.Close()

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		if _, err := db.AddLogs("strand-1", "agent", []LogInput{{Message: "line"}}, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("AddLogs: %v", err)
		}
	}

	archiveDir := filepath.Join(t.TempDir(), "archives")
	path, count, err := db.RotateStream("strand-1", archiveDir, 4, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("RotateStream: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 rows archived, got %d", count)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected archive file at %s: %v", path, err)
	}

	remaining, err := db.GetLogs("strand-1", LogQuery{})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(remaining) != 4 {
		t.Fatalf("expected 4 rows remaining, got %d", len(remaining))
	}
}

func TestRotateStreamNoOpBelowThreshold(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "skein.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.conn.Close()

	now := time.Now().UTC()
	if _, err := db.AddLogs("strand-2", "agent", []LogInput{{Message: "line"}}, now); err != nil {
		t.Fatalf("AddLogs: %v", err)
	}

	path, count, err := db.RotateStream("strand-2", filepath.Join(t.TempDir(), "archives"), 100, now)
	if err != nil {
		t.Fatalf("RotateStream: %v", err)
	}
	if path != "" || count != 0 {
		t.Fatalf("expected no-op, got path=%q count=%d", path, count)
	}
}
