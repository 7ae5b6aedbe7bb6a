package logstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

// LogInput is one log line as submitted by a caller, before a stream id
// and row id are assigned.
type LogInput struct {
	Level    string                 `json:"level"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AddLogs appends lines to stream_id, defaulting level to INFO and an
// absent metadata object to {}. Returns the count written, matching
// original_source/skein/storage.py's add_logs.
func (d *DB) AddLogs(streamID, source string, lines []LogInput, now time.Time) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin log insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO logs (stream_id, timestamp, level, source, message, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare log insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, line := range lines {
		level := line.Level
		if level == "" {
			level = "INFO"
		}
		metadata := line.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to marshal log metadata: %w", err)
		}

		if _, err := stmt.Exec(streamID, now.UTC(), level, source, line.Message, string(metaJSON)); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert log line: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit log insert: %w", err)
	}
	return count, nil
}

// LogQuery narrows GetLogs results. Zero values are unfiltered, except
// Limit which defaults to 1000 and is capped at 10000 (§4.5).
type LogQuery struct {
	Since  *time.Time
	Level  string
	Search string
	Limit  int
}

const (
	defaultLogLimit = 1000
	maxLogLimit     = 10000
)

// GetLogs queries stream_id's lines, newest first. When Search is set,
// the query routes through the logs_fts virtual table instead of a
// plain WHERE clause, matching the original's FTS dispatch in get_logs.
func (d *DB) GetLogs(streamID string, q LogQuery) ([]types.LogLine, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	var rows *sql.Rows
	var err error

	if q.Search != "" {
		var b strings.Builder
		args := []interface{}{streamID, q.Search}
		b.WriteString(`
			SELECT logs.id, logs.stream_id, logs.timestamp, logs.level, logs.source, logs.message, logs.metadata
			FROM logs
			JOIN logs_fts ON logs.id = logs_fts.rowid
			WHERE logs.stream_id = ? AND logs_fts MATCH ?`)
		if q.Since != nil {
			b.WriteString(" AND logs.timestamp >= ?")
			args = append(args, q.Since.UTC())
		}
		if q.Level != "" {
			b.WriteString(" AND logs.level = ?")
			args = append(args, q.Level)
		}
		b.WriteString(" ORDER BY logs.timestamp DESC LIMIT ?")
		args = append(args, limit)
		rows, err = d.conn.Query(b.String(), args...)
	} else {
		var b strings.Builder
		args := []interface{}{streamID}
		b.WriteString("SELECT id, stream_id, timestamp, level, source, message, metadata FROM logs WHERE stream_id = ?")
		if q.Since != nil {
			b.WriteString(" AND timestamp >= ?")
			args = append(args, q.Since.UTC())
		}
		if q.Level != "" {
			b.WriteString(" AND level = ?")
			args = append(args, q.Level)
		}
		b.WriteString(" ORDER BY timestamp DESC LIMIT ?")
		args = append(args, limit)
		rows, err = d.conn.Query(b.String(), args...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var out []types.LogLine
	for rows.Next() {
		var l types.LogLine
		var metaJSON sql.NullString
		if err := rows.Scan(&l.RowID, &l.StreamID, &l.Timestamp, &l.Level, &l.Source, &l.Message, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &l.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal log metadata: %w", err)
			}
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}
	return out, nil
}

// Stream summarizes one stream_id's aggregate log state.
type Stream struct {
	StreamID  string    `json:"stream_id"`
	LineCount int64     `json:"line_count"`
	FirstLog  time.Time `json:"first_log"`
	LastLog   time.Time `json:"last_log"`
}

// GetStreams lists every stream_id with its line count and first/last
// timestamps, newest-last-activity first, matching get_streams.
func (d *DB) GetStreams() ([]Stream, error) {
	rows, err := d.conn.Query(`
		SELECT stream_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM logs
		GROUP BY stream_id
		ORDER BY MAX(timestamp) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query streams: %w", err)
	}
	defer rows.Close()

	var out []Stream
	for rows.Next() {
		var s Stream
		if err := rows.Scan(&s.StreamID, &s.LineCount, &s.FirstLog, &s.LastLog); err != nil {
			return nil, fmt.Errorf("failed to scan stream row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stream rows: %w", err)
	}
	return out, nil
}
