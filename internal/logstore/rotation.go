package logstore

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// RotationThreshold is the per-stream row count past which AddLogs'
// caller should consider rotating a stream's oldest rows out to a
// compressed archive file (§4.5).
const RotationThreshold = 50000

// RotateStream moves every row of streamID older than the most recent
// keepRecent rows into a gzip-compressed JSON-lines archive under
// archiveDir, then deletes them from the live table. It returns the
// archive path and the number of rows archived, or ("", 0, nil) if
// the stream has no more than keepRecent rows and nothing was done.
func (d *DB) RotateStream(streamID, archiveDir string, keepRecent int, now time.Time) (string, int, error) {
	if keepRecent <= 0 {
		keepRecent = defaultLogLimit
	}

	var total int64
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM logs WHERE stream_id = ?", streamID).Scan(&total); err != nil {
		return "", 0, fmt.Errorf("failed to count rows for rotation: %w", err)
	}
	if total <= int64(keepRecent) {
		return "", 0, nil
	}

	rows, err := d.conn.Query(`
		SELECT id, stream_id, timestamp, level, source, message, metadata
		FROM logs WHERE stream_id = ?
		ORDER BY timestamp ASC LIMIT ?
	`, streamID, total-int64(keepRecent))
	if err != nil {
		return "", 0, fmt.Errorf("failed to query rows to archive: %w", err)
	}
	defer rows.Close()

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create log archive directory: %w", err)
	}
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s.jsonl.gz", streamID, now.UTC().Format("20060102-150405")))

	f, err := os.Create(archivePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create log archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	bw := bufio.NewWriter(gz)

	var archivedIDs []int64
	count := 0
	for rows.Next() {
		var rowID int64
		var streamIDCol, level, source, message string
		var ts time.Time
		var metaJSON sql.NullString
		if err := rows.Scan(&rowID, &streamIDCol, &ts, &level, &source, &message, &metaJSON); err != nil {
			return "", 0, fmt.Errorf("failed to scan row for archive: %w", err)
		}

		entry := map[string]interface{}{
			"row_id": rowID, "stream_id": streamIDCol, "timestamp": ts,
			"level": level, "source": source, "message": message,
		}
		if metaJSON.Valid && metaJSON.String != "" {
			var meta map[string]interface{}
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				entry["metadata"] = meta
			}
		}

		line, err := json.Marshal(entry)
		if err != nil {
			return "", 0, fmt.Errorf("failed to marshal archived row: %w", err)
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			return "", 0, fmt.Errorf("failed to write archived row: %w", err)
		}
		archivedIDs = append(archivedIDs, rowID)
		count++
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("error iterating rows to archive: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return "", 0, fmt.Errorf("failed to flush log archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	if count == 0 {
		os.Remove(archivePath)
		return "", 0, nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return "", 0, fmt.Errorf("failed to begin archive-delete transaction: %w", err)
	}
	stmt, err := tx.Prepare("DELETE FROM logs WHERE id = ?")
	if err != nil {
		tx.Rollback()
		return "", 0, fmt.Errorf("failed to prepare archive-delete: %w", err)
	}
	defer stmt.Close()
	for _, id := range archivedIDs {
		if _, err := stmt.Exec(id); err != nil {
			tx.Rollback()
			return "", 0, fmt.Errorf("failed to delete archived row %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("failed to commit archive deletion: %w", err)
	}

	return archivePath, count, nil
}
