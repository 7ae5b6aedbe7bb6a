package logstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

// AddScreenshot records screenshot metadata. The image bytes themselves
// are written to disk by the caller at Path; this store only indexes
// the record, matching original_source/skein/storage.py's
// add_screenshot.
func (d *DB) AddScreenshot(s types.Screenshot) error {
	metaJSON, err := json.Marshal(nonNilMap(s.Metadata))
	if err != nil {
		return fmt.Errorf("failed to marshal screenshot metadata: %w", err)
	}

	var turn sql.NullInt64
	if s.Turn != nil {
		turn = sql.NullInt64{Int64: int64(*s.Turn), Valid: true}
	}

	_, err = d.conn.Exec(`
		INSERT INTO screenshots (screenshot_id, strand_id, timestamp, turn_number, label, file_path, file_size, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.StrandID, s.Timestamp.UTC(), turn, s.Label, s.Path, s.Size, string(metaJSON))
	if err != nil {
		return fmt.Errorf("failed to insert screenshot: %w", err)
	}
	return nil
}

// ScreenshotQuery narrows GetScreenshots results.
type ScreenshotQuery struct {
	StrandID string
	Since    *time.Time
	Limit    int
}

const defaultScreenshotLimit = 50

// GetScreenshots lists screenshots newest first, matching
// get_screenshots.
func (d *DB) GetScreenshots(q ScreenshotQuery) ([]types.Screenshot, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultScreenshotLimit
	}

	query := "SELECT screenshot_id, strand_id, timestamp, turn_number, label, file_path, file_size, metadata FROM screenshots WHERE 1=1"
	var args []interface{}

	if q.StrandID != "" {
		query += " AND strand_id = ?"
		args = append(args, q.StrandID)
	}
	if q.Since != nil {
		query += " AND timestamp >= ?"
		args = append(args, q.Since.UTC())
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	var out []types.Screenshot
	for rows.Next() {
		shot, err := scanScreenshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating screenshot rows: %w", err)
	}
	return out, nil
}

// GetScreenshot fetches a single screenshot by its public id. ok is
// false when not found.
func (d *DB) GetScreenshot(screenshotID string) (shot types.Screenshot, ok bool, err error) {
	rows, err := d.conn.Query(`
		SELECT screenshot_id, strand_id, timestamp, turn_number, label, file_path, file_size, metadata
		FROM screenshots WHERE screenshot_id = ?
	`, screenshotID)
	if err != nil {
		return types.Screenshot{}, false, fmt.Errorf("failed to query screenshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return types.Screenshot{}, false, nil
	}
	shot, err = scanScreenshot(rows)
	if err != nil {
		return types.Screenshot{}, false, err
	}
	return shot, true, nil
}

func scanScreenshot(rows *sql.Rows) (types.Screenshot, error) {
	var s types.Screenshot
	var turn sql.NullInt64
	var metaJSON sql.NullString

	if err := rows.Scan(&s.ID, &s.StrandID, &s.Timestamp, &turn, &s.Label, &s.Path, &s.Size, &metaJSON); err != nil {
		return types.Screenshot{}, fmt.Errorf("failed to scan screenshot row: %w", err)
	}
	if turn.Valid {
		v := int(turn.Int64)
		s.Turn = &v
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &s.Metadata); err != nil {
			return types.Screenshot{}, fmt.Errorf("failed to unmarshal screenshot metadata: %w", err)
		}
	}
	return s, nil
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
