package shard

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spiritengine/skein/internal/types"
)

//go:embed schema.sql
var shardSchema string

// MetadataStore persists ShardRecord rows to ".skein/shards.db",
// grounded on the same //go:embed-schema + schema_version idiom as
// internal/logstore and teacher internal/memory/db.go, scaled down to
// a single table since the shard subsystem has no versioned migration
// history yet.
type MetadataStore struct {
	conn *sql.DB
}

// OpenMetadataStore opens (creating if necessary) the shard metadata
// database at path.
func OpenMetadataStore(path string) (*MetadataStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create shard metadata directory: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open shard metadata store: %w", err)
	}
	if _, err := conn.Exec(shardSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize shard metadata schema: %w", err)
	}
	return &MetadataStore{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *MetadataStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Save upserts a shard's metadata record.
func (s *MetadataStore) Save(r types.ShardRecord) error {
	_, err := s.conn.Exec(`
		INSERT INTO shards (worktree_name, parent_worktree, base_commit, created_at, spawning_name, brief_id, description, status, tendered_at, merged_at, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worktree_name) DO UPDATE SET
			parent_worktree=excluded.parent_worktree,
			base_commit=excluded.base_commit,
			spawning_name=excluded.spawning_name,
			brief_id=excluded.brief_id,
			description=excluded.description,
			status=excluded.status,
			tendered_at=excluded.tendered_at,
			merged_at=excluded.merged_at,
			confidence=excluded.confidence
	`, r.WorktreeName, nullableStr(r.ParentWorktree), r.BaseCommit, r.CreatedAt.UTC(), r.SpawningName,
		nullableStr(r.BriefID), nullableStr(r.Description), string(r.Status),
		nullableTimePtr(r.TenderedAt), nullableTimePtr(r.MergedAt), nullableInt(r.Confidence))
	if err != nil {
		return fmt.Errorf("failed to save shard metadata for %s: %w", r.WorktreeName, err)
	}
	return nil
}

// Get fetches one shard's metadata record. ok is false when absent.
func (s *MetadataStore) Get(worktreeName string) (r types.ShardRecord, ok bool, err error) {
	row := s.conn.QueryRow(`
		SELECT worktree_name, parent_worktree, base_commit, created_at, spawning_name, brief_id, description, status, tendered_at, merged_at, confidence
		FROM shards WHERE worktree_name = ?
	`, worktreeName)
	r, err = scanShardRow(row)
	if err == sql.ErrNoRows {
		return types.ShardRecord{}, false, nil
	}
	if err != nil {
		return types.ShardRecord{}, false, fmt.Errorf("failed to load shard metadata for %s: %w", worktreeName, err)
	}
	return r, true, nil
}

// All returns every persisted shard record.
func (s *MetadataStore) All() ([]types.ShardRecord, error) {
	rows, err := s.conn.Query(`
		SELECT worktree_name, parent_worktree, base_commit, created_at, spawning_name, brief_id, description, status, tendered_at, merged_at, confidence
		FROM shards
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shard metadata: %w", err)
	}
	defer rows.Close()

	var out []types.ShardRecord
	for rows.Next() {
		r, err := scanShardRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByParent returns every shard whose parent_worktree is source, the
// direct children a graft chain walk needs (§4.7.7).
func (s *MetadataStore) ByParent(source string) ([]types.ShardRecord, error) {
	rows, err := s.conn.Query(`
		SELECT worktree_name, parent_worktree, base_commit, created_at, spawning_name, brief_id, description, status, tendered_at, merged_at, confidence
		FROM shards WHERE parent_worktree = ?
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query shard children of %s: %w", source, err)
	}
	defer rows.Close()

	var out []types.ShardRecord
	for rows.Next() {
		r, err := scanShardRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a shard's metadata record.
func (s *MetadataStore) Delete(worktreeName string) error {
	_, err := s.conn.Exec("DELETE FROM shards WHERE worktree_name = ?", worktreeName)
	if err != nil {
		return fmt.Errorf("failed to delete shard metadata for %s: %w", worktreeName, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanShardRow(row *sql.Row) (types.ShardRecord, error) {
	return scanShard(row)
}

func scanShardRows(rows *sql.Rows) (types.ShardRecord, error) {
	return scanShard(rows)
}

func scanShard(s scanner) (types.ShardRecord, error) {
	var r types.ShardRecord
	var parent, briefID, description sql.NullString
	var status string
	var tenderedAt, mergedAt sql.NullTime
	var confidence sql.NullInt64

	if err := s.Scan(&r.WorktreeName, &parent, &r.BaseCommit, &r.CreatedAt, &r.SpawningName,
		&briefID, &description, &status, &tenderedAt, &mergedAt, &confidence); err != nil {
		return types.ShardRecord{}, err
	}

	r.ParentWorktree = parent.String
	r.BriefID = briefID.String
	r.Description = description.String
	r.Status = types.ShardStatus(status)
	if tenderedAt.Valid {
		t := tenderedAt.Time
		r.TenderedAt = &t
	}
	if mergedAt.Valid {
		t := mergedAt.Time
		r.MergedAt = &t
	}
	if confidence.Valid {
		c := int(confidence.Int64)
		r.Confidence = &c
	}
	return r, nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
